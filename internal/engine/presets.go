package engine

import (
	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/difficulty"
	"github.com/cefrkit/placement/internal/itemgen"
)

// ReadingConfig: three passages of five questions from B1, adapting per
// passage, persisted after every turn. A passage's questions are generated
// together and presented one at a time.
func ReadingConfig(f itemgen.Factory) SkillConfig {
	return SkillConfig{
		Skill:           itemgen.SkillReading,
		DefaultStart:    cefr.B1,
		Total:           3 * itemgen.QuestionsPerPassage,
		BatchSize:       1,
		GenerateSize:    itemgen.QuestionsPerPassage,
		Rule:            difficulty.PassageBlock{Size: itemgen.QuestionsPerPassage},
		Factory:         f,
		PersistEachTurn: true,
	}
}

// ListeningConfig: ten clips in pairs from A2.
func ListeningConfig(f itemgen.Factory) SkillConfig {
	return SkillConfig{
		Skill:        itemgen.SkillListening,
		DefaultStart: cefr.A2,
		Total:        10,
		BatchSize:    itemgen.MaxListeningBatch,
		Rule:         difficulty.Pairwise{},
		Factory:      f,
	}
}

// VocabularyConfig: fifteen single items, always from B1. Finished
// sessions keep only their summary.
func VocabularyConfig(f itemgen.Factory) SkillConfig {
	start := cefr.B1
	return SkillConfig{
		Skill:           itemgen.SkillVocabulary,
		DefaultStart:    cefr.B1,
		ForcedStart:     &start,
		Total:           15,
		BatchSize:       1,
		Rule:            difficulty.Streak{Threshold: 2},
		Factory:         f,
		CompactOnFinish: true,
	}
}

// SpeakingConfig: eight prompts from A2 graded by scorer.
func SpeakingConfig(f itemgen.Factory, scorer Scorer) SkillConfig {
	return SkillConfig{
		Skill:        itemgen.SkillSpeaking,
		DefaultStart: cefr.A2,
		Total:        8,
		BatchSize:    1,
		Rule:         difficulty.DirectGrade{},
		Factory:      f,
		Scorer:       scorer,
	}
}
