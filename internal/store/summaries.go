package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLSummaryRepo implements SummaryRepo.
type SQLSummaryRepo struct {
	db *sqlx.DB
}

const summaryColumns = `username, skill, session_id, items_answered, correct_total,
	incorrect_total, start_level, end_level, finished, payload, created_at, updated_at`

// Upsert writes s, replacing any earlier summary for the same user and
// skill. The original created_at is preserved.
func (r *SQLSummaryRepo) Upsert(ctx context.Context, s SkillSummary) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO skill_summaries (`+summaryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (username, skill) DO UPDATE SET
			session_id = excluded.session_id,
			items_answered = excluded.items_answered,
			correct_total = excluded.correct_total,
			incorrect_total = excluded.incorrect_total,
			start_level = excluded.start_level,
			end_level = excluded.end_level,
			finished = excluded.finished,
			payload = excluded.payload,
			updated_at = excluded.updated_at`),
		s.Username, s.Skill, s.SessionID, s.ItemsAnswered, s.CorrectTotal,
		s.IncorrectTotal, s.StartLevel, s.EndLevel, s.Finished, s.Payload,
		s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert summary %s/%s: %w", s.Username, s.Skill, err)
	}
	return nil
}

// Get returns the summary for one user and skill or ErrNotFound.
func (r *SQLSummaryRepo) Get(ctx context.Context, username, skill string) (*SkillSummary, error) {
	var s SkillSummary
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`SELECT `+summaryColumns+`
		FROM skill_summaries WHERE username = ? AND skill = ?`), username, skill)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get summary %s/%s: %w", username, skill, err)
	}
	return &s, nil
}

// ListByUser returns every skill summary for username ordered by skill.
func (r *SQLSummaryRepo) ListByUser(ctx context.Context, username string) ([]SkillSummary, error) {
	var out []SkillSummary
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`SELECT `+summaryColumns+`
		FROM skill_summaries WHERE username = ? ORDER BY skill`), username)
	if err != nil {
		return nil, fmt.Errorf("list summaries for %s: %w", username, err)
	}
	return out, nil
}

// List returns all summaries ordered by user then skill.
func (r *SQLSummaryRepo) List(ctx context.Context) ([]SkillSummary, error) {
	var out []SkillSummary
	err := r.db.SelectContext(ctx, &out, `SELECT `+summaryColumns+`
		FROM skill_summaries ORDER BY username, skill`)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	return out, nil
}

// PurgeOlderThan deletes summaries last updated before cutoff.
func (r *SQLSummaryRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`DELETE FROM skill_summaries WHERE updated_at < ?`), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge summaries: %w", err)
	}
	return res.RowsAffected()
}
