package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLUserRepo implements UserRepo.
type SQLUserRepo struct {
	db *sqlx.DB
}

func (r *SQLUserRepo) Get(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(`SELECT username, password_hash, created_at, updated_at
		FROM users WHERE username = ?`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", username, err)
	}
	return &u, nil
}

// Upsert creates the user or replaces its password hash.
func (r *SQLUserRepo) Upsert(ctx context.Context, username, passwordHash string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO users (username, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = excluded.password_hash,
			updated_at = excluded.updated_at`),
		username, passwordHash, now, now)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", username, err)
	}
	return nil
}

// PurgeDormant deletes users untouched since cutoff that have no remaining
// skill summaries.
func (r *SQLUserRepo) PurgeDormant(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users
		WHERE updated_at < ?
		AND NOT EXISTS (SELECT 1 FROM skill_summaries s WHERE s.username = users.username)`),
		cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge users: %w", err)
	}
	return res.RowsAffected()
}
