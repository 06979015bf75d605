package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migrate creates the tables this service owns. Statements are written in
// the subset of SQL both SQLite and Postgres accept, except for the
// auto-increment key which is chosen per driver.
func migrate(db *sqlx.DB) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "pgx" {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username      VARCHAR(128) PRIMARY KEY,
			password_hash VARCHAR(256) NOT NULL,
			created_at    TIMESTAMP NOT NULL,
			updated_at    TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS skill_summaries (
			username        VARCHAR(128) NOT NULL,
			skill           VARCHAR(32) NOT NULL,
			session_id      VARCHAR(64) NOT NULL,
			items_answered  INTEGER NOT NULL DEFAULT 0,
			correct_total   INTEGER NOT NULL DEFAULT 0,
			incorrect_total INTEGER NOT NULL DEFAULT 0,
			start_level     VARCHAR(8) NOT NULL DEFAULT '',
			end_level       VARCHAR(8) NOT NULL DEFAULT '',
			finished        BOOLEAN NOT NULL DEFAULT FALSE,
			payload         TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMP NOT NULL,
			updated_at      TIMESTAMP NOT NULL,
			PRIMARY KEY (username, skill)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_skill_summaries_updated ON skill_summaries (updated_at)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS llm_events (
			id            %s,
			timestamp     TIMESTAMP NOT NULL,
			provider      VARCHAR(32) NOT NULL,
			model         VARCHAR(128) NOT NULL,
			purpose       VARCHAR(64) NOT NULL,
			input_tokens  INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			latency_ms    BIGINT NOT NULL DEFAULT 0,
			success       BOOLEAN NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			request_body  TEXT NOT NULL DEFAULT '',
			response_body TEXT NOT NULL DEFAULT ''
		)`, idColumn),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
