package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cefrkit/placement/internal/store"
)

// StoreSink writes one summary row per user and skill; the latest
// snapshot replaces the previous one.
type StoreSink struct {
	Summaries store.SummaryRepo
}

func (k StoreSink) Record(ctx context.Context, s *Session) error {
	sum := Finalize(s)
	if s.Summary != nil {
		sum = *s.Summary
	}
	payload, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return k.Summaries.Upsert(ctx, store.SkillSummary{
		Username:       s.Username,
		Skill:          string(s.Skill),
		SessionID:      s.ID,
		ItemsAnswered:  s.Asked,
		CorrectTotal:   sum.Correct,
		IncorrectTotal: sum.Incorrect,
		StartLevel:     s.StartLevel.String(),
		EndLevel:       s.Level.String(),
		Finished:       s.Finished(),
		Payload:        string(payload),
	})
}
