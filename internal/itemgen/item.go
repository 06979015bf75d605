// Package itemgen turns free-form generator output into validated
// assessment items. It owns the parsing, validation and bounded-retry
// pipeline that sits between the content provider and a session.
package itemgen

import (
	"context"
	"fmt"

	"github.com/cefrkit/placement/internal/cefr"
)

// Skill names an assessed skill.
type Skill string

const (
	SkillReading    Skill = "reading"
	SkillListening  Skill = "listening"
	SkillVocabulary Skill = "vocabulary"
	SkillSpeaking   Skill = "speaking"
	SkillWriting    Skill = "writing"
)

// ParseSkill validates a skill name from a URL or flag.
func ParseSkill(s string) (Skill, error) {
	switch sk := Skill(s); sk {
	case SkillReading, SkillListening, SkillVocabulary, SkillSpeaking, SkillWriting:
		return sk, nil
	}
	return "", fmt.Errorf("unknown skill %q", s)
}

// Item is one unit of assessable content at a specific level.
// Items are never modified after a factory returns them.
type Item struct {
	ID      string     `json:"id"`
	Skill   Skill      `json:"skill"`
	Level   cefr.Level `json:"level"`
	ExamTag string     `json:"exam_tag"`

	// Title is a short heading for a passage or clip.
	Title string `json:"title,omitempty"`

	// Stimulus is the passage, clip transcript or speaking prompt.
	Stimulus string `json:"stimulus"`

	// Question is empty for speaking prompts.
	Question string `json:"question,omitempty"`

	// Options holds exactly four choices for multiple-choice skills.
	Options      []string `json:"options,omitempty"`
	CorrectIndex int      `json:"correct_index"`
	Rationale    string   `json:"rationale,omitempty"`

	TaskType         string   `json:"task_type,omitempty"`
	TargetVocab      []string `json:"target_vocab,omitempty"`
	TargetStructures []string `json:"target_structures,omitempty"`

	// Speaking timings and examiner guidance.
	PrepSeconds   int    `json:"prep_seconds,omitempty"`
	RecordSeconds int    `json:"record_seconds,omitempty"`
	Guidance      string `json:"guidance,omitempty"`

	// GroupID ties together questions that share one reading passage.
	GroupID string `json:"group_id,omitempty"`
}

// MultipleChoice reports whether the item is answered by picking an option.
func (it Item) MultipleChoice() bool {
	return len(it.Options) > 0
}

// Factory produces validated items for one skill.
type Factory interface {
	// Skill returns the skill this factory generates for.
	Skill() Skill

	// GenerateBatch returns exactly count items at level, or an error.
	// Generation and validation failures are retried internally; once the
	// bound is reached a *GenerationExhaustedError is returned.
	GenerateBatch(ctx context.Context, level cefr.Level, count int) ([]Item, error)
}

// GenerateOne is GenerateBatch for a single item.
func GenerateOne(ctx context.Context, f Factory, level cefr.Level) (Item, error) {
	items, err := f.GenerateBatch(ctx, level, 1)
	if err != nil {
		return Item{}, err
	}
	if len(items) != 1 {
		return Item{}, &ItemFormatError{Shape: string(f.Skill()), Index: -1, Reason: fmt.Sprintf("expected 1 item, got %d", len(items))}
	}
	return items[0], nil
}
