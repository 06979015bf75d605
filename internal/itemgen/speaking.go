package itemgen

import (
	"context"

	"github.com/google/uuid"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/llm"
)

// Speaking timing bounds in seconds.
const (
	DefaultPrepSeconds   = 30
	MinPrepSeconds       = 10
	MaxPrepSeconds       = 90
	DefaultRecordSeconds = 60
	MinRecordSeconds     = 30
	MaxRecordSeconds     = 60
)

var speakingShape = Shape{
	Name:        "speaking",
	QuestionKey: "prompt",
}

// SpeakingFactory generates open speaking prompts. Speaking items carry
// no options; they are graded by an evaluator.
type SpeakingFactory struct {
	gen generator
}

// NewSpeakingFactory creates a speaking factory.
func NewSpeakingFactory(p llm.Provider, cfg Config) *SpeakingFactory {
	return &SpeakingFactory{gen: generator{skill: SkillSpeaking, provider: p, cfg: cfg}}
}

func (f *SpeakingFactory) Skill() Skill { return SkillSpeaking }

func (f *SpeakingFactory) GenerateBatch(ctx context.Context, level cefr.Level, count int) ([]Item, error) {
	items := make([]Item, 0, count)
	for range count {
		it, err := generate(ctx, f.gen, llm.PurposeSpeakingPrompt, speakingSystem, speakingPrompt(level),
			func(_ context.Context, text string) (Item, error) {
				return buildSpeaking(text, level)
			})
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func buildSpeaking(text string, level cefr.Level) (Item, error) {
	raw, err := ExtractObject(text)
	if err != nil {
		return Item{}, err
	}
	cands, err := ValidateBatch(raw, speakingShape, 1)
	if err != nil {
		return Item{}, err
	}
	c := cands[0]
	return Item{
		ID:            uuid.NewString(),
		Skill:         SkillSpeaking,
		Level:         level,
		ExamTag:       level.ExamTag(),
		Stimulus:      c.Question,
		PrepSeconds:   clampSeconds(c.Fields["prep_seconds"], DefaultPrepSeconds, MinPrepSeconds, MaxPrepSeconds),
		RecordSeconds: clampSeconds(c.Fields["record_seconds"], DefaultRecordSeconds, MinRecordSeconds, MaxRecordSeconds),
		Guidance:      stringField(c.Fields, "guidance"),
	}, nil
}

func clampSeconds(v any, def, lo, hi int) int {
	n, ok := intField(v)
	if !ok {
		n = def
	}
	return max(lo, min(n, hi))
}
