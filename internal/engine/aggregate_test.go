package engine

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/difficulty"
	"github.com/cefrkit/placement/internal/itemgen"
)

func finishedSession() *Session {
	s := &Session{
		ID:         "s1",
		Username:   "ana",
		Skill:      itemgen.SkillListening,
		StartLevel: cefr.A2,
		Level:      cefr.B2,
		Total:      4,
		Asked:      4,
		Phase:      PhaseFinished,
		History: []difficulty.Outcome{
			{Correct: true}, {Correct: true}, {Correct: false}, {Correct: true},
		},
	}
	for i := 0; i < 4; i++ {
		s.Shown = append(s.Shown, itemgen.Item{
			ID:               fmt.Sprintf("c%d", i),
			TargetVocab:      []string{"commute", fmt.Sprintf("v%d-a", i), fmt.Sprintf("v%d-b", i), fmt.Sprintf("v%d-c", i), fmt.Sprintf("v%d-d", i), fmt.Sprintf("v%d-e", i), fmt.Sprintf("v%d-f", i)},
			TargetStructures: []string{"past simple", fmt.Sprintf("s%d-a", i), fmt.Sprintf("s%d-b", i), fmt.Sprintf("s%d-c", i)},
		})
		s.Answers = append(s.Answers, AnswerRecord{
			ItemID:     fmt.Sprintf("c%d", i),
			Number:     i + 1,
			Correct:    s.History[i].Correct,
			AnsweredAt: time.Date(2026, 1, 1, 0, i, 0, 0, time.UTC),
		})
	}
	return s
}

func TestFinalize(t *testing.T) {
	s := finishedSession()
	sum := Finalize(s)

	assert.Equal(t, 3, sum.Correct)
	assert.Equal(t, 1, sum.Incorrect)
	assert.Equal(t, 4, sum.Answered)
	assert.Equal(t, cefr.A2, sum.StartLevel)
	assert.Equal(t, cefr.B2, sum.FinalLevel)
	assert.Equal(t, "FCE", sum.ExamTag)
	assert.True(t, sum.Finished)
	assert.Len(t, sum.Answers, 4)

	require.Len(t, sum.TargetVocab, MaxSummaryVocab)
	assert.Equal(t, "commute", sum.TargetVocab[0])
	assert.Equal(t, "v0-a", sum.TargetVocab[1], "first-seen order")
	assert.Equal(t, "v1-a", sum.TargetVocab[7], "duplicates are skipped")

	require.Len(t, sum.TargetStructures, MaxSummaryStructures)
	assert.Equal(t, []string{"past simple", "s0-a", "s0-b", "s0-c", "s1-a"}, sum.TargetStructures[:5])
}

func TestFinalizeIsIdempotent(t *testing.T) {
	s := finishedSession()
	first, err := json.Marshal(Finalize(s))
	require.NoError(t, err)
	second, err := json.Marshal(Finalize(s))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	// Mutating the returned summary must not leak into the session.
	sum := Finalize(s)
	sum.Answers[0].Correct = false
	assert.True(t, s.Answers[0].Correct)
}

func TestFinalizeEmpty(t *testing.T) {
	sum := Finalize(&Session{Skill: itemgen.SkillReading, Level: cefr.B1, StartLevel: cefr.B1, Phase: PhaseActive})
	assert.Zero(t, sum.Correct)
	assert.NotNil(t, sum.TargetVocab)
	assert.NotNil(t, sum.Answers)
	assert.False(t, sum.Finished)
	assert.Equal(t, "PET", sum.ExamTag)
}
