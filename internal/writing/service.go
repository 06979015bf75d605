// Package writing generates free-writing prompts and scores essays against
// a CEFR rubric. Writing has no adaptive session; one scored text per user
// is kept as that user's writing result.
package writing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/itemgen"
	"github.com/cefrkit/placement/internal/llm"
	"github.com/cefrkit/placement/internal/logging"
	"github.com/cefrkit/placement/internal/speaking"
	"github.com/cefrkit/placement/internal/store"
)

// Skill is the summary row key for writing results.
const Skill = string(itemgen.SkillWriting)

// MaxTextRunes is the most text sent to the examiner.
const MaxTextRunes = 8000

// DefaultPrompt is served when no prompt can be generated.
const DefaultPrompt = "Write approximately 200 words on a random topic of everyday life (e.g., a memorable journey, a challenge you faced, or a hobby you enjoy)."

// ErrEmptyText is returned when there is nothing to score.
var ErrEmptyText = errors.New("text is required")

// Rubric is the scored result for one text.
type Rubric struct {
	Band      cefr.Level         `json:"band"`
	Scores    map[string]float64 `json:"scores"`
	Overall   float64            `json:"overall"`
	WordCount int                `json:"word_count"`
	Comments  Comments           `json:"comments"`
	Source    speaking.Source    `json:"source"`
}

// Comments holds the examiner's remarks.
type Comments struct {
	Global string          `json:"global"`
	Inline []InlineComment `json:"inline"`
}

// InlineComment annotates a span of the text.
type InlineComment struct {
	Span    string `json:"span"`
	Comment string `json:"comment"`
}

// Service generates prompts, scores texts and keeps each user's latest
// result.
type Service struct {
	provider  llm.Provider
	summaries store.SummaryRepo
	log       *logging.Logger
}

// NewService wires a writing service. summaries may be nil when results
// need not be kept.
func NewService(p llm.Provider, summaries store.SummaryRepo, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{provider: p, summaries: summaries, log: log.With("skill", Skill)}
}

var promptSchema = &llm.Schema{
	Name:        "writing-prompt",
	Description: "A single writing prompt",
	Definition: map[string]any{
		"type":                 "object",
		"properties":           map[string]any{"prompt": map[string]any{"type": "string"}},
		"required":             []string{"prompt"},
		"additionalProperties": false,
	},
}

// Prompt returns a fresh writing prompt, or DefaultPrompt when generation
// fails. Only a cancelled context is an error.
func (s *Service) Prompt(ctx context.Context) (string, error) {
	req := llm.UserPrompt(promptSystem, promptRequest)
	req.Schema = promptSchema
	req.MaxTokens = 256
	req.Temperature = 0.9

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeWritingPrompt), req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.log.Warn("writing prompt generation failed", "error", err)
		return DefaultPrompt, nil
	}

	var out struct {
		Prompt string `json:"prompt"`
	}
	if err := itemgen.DecodeObject(resp.Text, &out); err != nil {
		s.log.Warn("writing prompt unreadable", "error", err)
		return DefaultPrompt, nil
	}
	if p := strings.TrimSpace(out.Prompt); p != "" {
		return p, nil
	}
	return DefaultPrompt, nil
}

var rubricSchema = &llm.Schema{
	Name:        "writing-rubric",
	Description: "CEFR rubric for a piece of writing",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"band": map[string]any{"type": "string", "enum": []string{"A1", "A2", "B1", "B2", "C1", "C2"}},
			"scores": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "number"},
			},
			"overall":    map[string]any{"type": "number"},
			"word_count": map[string]any{"type": "integer"},
			"comments": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"global": map[string]any{"type": "string"},
					"inline": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"span":    map[string]any{"type": "string"},
								"comment": map[string]any{"type": "string"},
							},
						},
					},
				},
			},
		},
		"required": []string{"band", "scores", "overall"},
	},
}

type rubricReply struct {
	Band      string             `json:"band"`
	Scores    map[string]float64 `json:"scores"`
	Overall   float64            `json:"overall"`
	WordCount int                `json:"word_count"`
	Comments  Comments           `json:"comments"`
}

// Score rates text on the rubric. Text beyond MaxTextRunes is dropped.
// Provider or format failures degrade to a heuristic band.
func (s *Service) Score(ctx context.Context, text string) (*Rubric, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxTextRunes {
		text = string([]rune(text)[:MaxTextRunes])
	}

	req := llm.UserPrompt(rubricSystem, rubricPrompt(text))
	req.Schema = rubricSchema
	req.MaxTokens = 2048
	req.Temperature = 0.2

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeWritingScore), req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warn("writing scoring failed, using heuristic", "error", err)
		return heuristicRubric(text), nil
	}

	var reply rubricReply
	if err := itemgen.DecodeObject(resp.Text, &reply); err != nil {
		s.log.Warn("writing rubric unreadable, using heuristic", "error", err)
		return heuristicRubric(text), nil
	}
	band, err := cefr.Parse(reply.Band)
	if err != nil {
		s.log.Warn("writing rubric has no band, using heuristic", "band", reply.Band)
		return heuristicRubric(text), nil
	}

	r := &Rubric{
		Band:      band,
		Scores:    reply.Scores,
		Overall:   reply.Overall,
		WordCount: reply.WordCount,
		Comments:  reply.Comments,
		Source:    speaking.SourceLLM,
	}
	if r.Scores == nil {
		r.Scores = map[string]float64{}
	}
	if r.Comments.Inline == nil {
		r.Comments.Inline = []InlineComment{}
	}
	if r.WordCount <= 0 {
		r.WordCount = len(strings.Fields(text))
	}
	return r, nil
}

func heuristicRubric(text string) *Rubric {
	est := speaking.EstimateLevel(text)
	return &Rubric{
		Band:      est.Level,
		Scores:    map[string]float64{},
		Overall:   float64(est.Level.Index()),
		WordCount: len(strings.Fields(text)),
		Comments:  Comments{Global: est.Feedback, Inline: []InlineComment{}},
		Source:    speaking.SourceHeuristic,
	}
}

// Save keeps r as username's writing result, replacing any earlier one.
func (s *Service) Save(ctx context.Context, username string, r *Rubric) error {
	if s.summaries == nil {
		return nil
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode rubric: %w", err)
	}
	return s.summaries.Upsert(ctx, store.SkillSummary{
		Username:      username,
		Skill:         Skill,
		ItemsAnswered: 1,
		StartLevel:    r.Band.String(),
		EndLevel:      r.Band.String(),
		Finished:      true,
		Payload:       string(payload),
	})
}

// DefaultBand suggests a writing band for username from their finished
// results in the other skills. Without any, it is B1.
func (s *Service) DefaultBand(ctx context.Context, username string) (cefr.Level, error) {
	if s.summaries == nil {
		return DefaultBand(nil), nil
	}
	rows, err := s.summaries.ListByUser(ctx, username)
	if err != nil {
		return cefr.B1, fmt.Errorf("list summaries: %w", err)
	}
	var levels []cefr.Level
	for _, r := range rows {
		if r.Skill == Skill || !r.Finished {
			continue
		}
		if l, err := cefr.Parse(r.EndLevel); err == nil {
			levels = append(levels, l)
		}
	}
	return DefaultBand(levels), nil
}

// DefaultBand is the rounded mean of levels, B1 when empty.
func DefaultBand(levels []cefr.Level) cefr.Level {
	return cefr.Average(levels)
}
