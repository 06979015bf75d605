package itemgen

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/llm"
)

var listeningShape = Shape{
	Name:        "listening",
	ListKey:     "clips",
	StimulusKey: "transcript",
	AnswerKey:   "correct_index",
	Choice:      true,
}

// ListeningFactory generates clip transcripts with one question each.
type ListeningFactory struct {
	gen generator
}

// NewListeningFactory creates a listening factory.
func NewListeningFactory(p llm.Provider, cfg Config) *ListeningFactory {
	return &ListeningFactory{gen: generator{skill: SkillListening, provider: p, cfg: cfg}}
}

func (f *ListeningFactory) Skill() Skill { return SkillListening }

// GenerateBatch returns count clips, 1 <= count <= MaxListeningBatch.
func (f *ListeningFactory) GenerateBatch(ctx context.Context, level cefr.Level, count int) ([]Item, error) {
	if count < 1 || count > MaxListeningBatch {
		return nil, fmt.Errorf("listening batches hold 1-%d clips, asked for %d", MaxListeningBatch, count)
	}
	return generate(ctx, f.gen, llm.PurposeListeningItems, listeningSystem, listeningPrompt(level, count),
		func(_ context.Context, text string) ([]Item, error) {
			return buildListening(text, level, count)
		})
}

func buildListening(text string, level cefr.Level, count int) ([]Item, error) {
	raw, err := ExtractObject(text)
	if err != nil {
		return nil, err
	}
	cands, err := ValidateBatch(raw, listeningShape, count)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(cands))
	for i, c := range cands {
		title := stringField(c.Fields, "title")
		if title == "" {
			title = fmt.Sprintf("Clip %d", i+1)
		}
		task := stringField(c.Fields, "exam_task_type")
		if task == "" {
			task = "gist"
		}
		targets, _ := c.Fields["targets"].(map[string]any)

		items[i] = Item{
			ID:               uuid.NewString(),
			Skill:            SkillListening,
			Level:            level,
			ExamTag:          level.ExamTag(),
			Title:            title,
			Stimulus:         c.Stimulus,
			Question:         c.Question,
			Options:          c.Options,
			CorrectIndex:     c.CorrectIndex,
			Rationale:        c.Rationale,
			TaskType:         task,
			TargetVocab:      stringList(targets, "target_vocab", MaxItemVocab),
			TargetStructures: stringList(targets, "target_structures", MaxItemStructures),
		}
	}
	return items, nil
}
