package itemgen

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/llm"
)

var readingShape = Shape{
	Name:      "reading",
	ListKey:   "questions",
	AnswerKey: "correct_index",
	Choice:    true,
}

// ReadingFactory generates one passage with its five questions per call.
type ReadingFactory struct {
	gen generator
}

// NewReadingFactory creates a reading factory.
func NewReadingFactory(p llm.Provider, cfg Config) *ReadingFactory {
	return &ReadingFactory{gen: generator{skill: SkillReading, provider: p, cfg: cfg}}
}

func (f *ReadingFactory) Skill() Skill { return SkillReading }

// GenerateBatch returns the questions of one new passage. count must be
// QuestionsPerPassage.
func (f *ReadingFactory) GenerateBatch(ctx context.Context, level cefr.Level, count int) ([]Item, error) {
	if count != QuestionsPerPassage {
		return nil, fmt.Errorf("reading batches hold %d questions, asked for %d", QuestionsPerPassage, count)
	}
	return generate(ctx, f.gen, llm.PurposeReadingItems, readingSystem, readingPrompt(level),
		func(_ context.Context, text string) ([]Item, error) {
			return buildReading(text, level)
		})
}

func buildReading(text string, level cefr.Level) ([]Item, error) {
	raw, err := ExtractObject(text)
	if err != nil {
		return nil, err
	}
	cands, err := ValidateBatch(raw, readingShape, QuestionsPerPassage)
	if err != nil {
		return nil, err
	}

	var title, body string
	switch p := raw["passage"].(type) {
	case map[string]any:
		title = stringField(p, "title")
		body = stringField(p, "text")
	case string:
		body = stringField(raw, "passage")
	}
	if body == "" {
		return nil, &ItemFormatError{Shape: readingShape.Name, Index: -1, Reason: "passage text is empty"}
	}

	group := uuid.NewString()
	items := make([]Item, len(cands))
	for i, c := range cands {
		items[i] = Item{
			ID:           fmt.Sprintf("q%d-%s", i+1, shortID()),
			Skill:        SkillReading,
			Level:        level,
			ExamTag:      level.ExamTag(),
			Title:        title,
			Stimulus:     body,
			Question:     c.Question,
			Options:      c.Options,
			CorrectIndex: c.CorrectIndex,
			Rationale:    c.Rationale,
			GroupID:      group,
		}
	}
	return items, nil
}
