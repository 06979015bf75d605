package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact purpose match when set
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
}

// LLMRequestEventData captures the data for a single content provider call.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM event.
type LLMRequestEventRecord struct {
	ID           int64     `db:"id"`
	Timestamp    time.Time `db:"timestamp"`
	Provider     string    `db:"provider"`
	Model        string    `db:"model"`
	Purpose      string    `db:"purpose"`
	InputTokens  int       `db:"input_tokens"`
	OutputTokens int       `db:"output_tokens"`
	LatencyMs    int64     `db:"latency_ms"`
	Success      bool      `db:"success"`
	ErrorMessage string    `db:"error_message"`
	RequestBody  string    `db:"request_body"`
	ResponseBody string    `db:"response_body"`
}

// PurposeUsage aggregates LLM usage for one purpose label.
type PurposeUsage struct {
	Purpose      string `db:"purpose"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	AvgLatencyMs int64  `db:"avg_latency_ms"`
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string `db:"model"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
}

// EventRepo records content provider calls.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// SkillSummary is the latest session summary of one user for one skill.
type SkillSummary struct {
	Username       string    `db:"username" json:"username"`
	Skill          string    `db:"skill" json:"skill"`
	SessionID      string    `db:"session_id" json:"session_id"`
	ItemsAnswered  int       `db:"items_answered" json:"items_answered"`
	CorrectTotal   int       `db:"correct_total" json:"correct_total"`
	IncorrectTotal int       `db:"incorrect_total" json:"incorrect_total"`
	StartLevel     string    `db:"start_level" json:"start_level"`
	EndLevel       string    `db:"end_level" json:"end_level"`
	Finished       bool      `db:"finished" json:"finished"`
	Payload        string    `db:"payload" json:"payload,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// SummaryRepo keeps one row per user per skill; every write replaces the
// previous one.
type SummaryRepo interface {
	Upsert(ctx context.Context, s SkillSummary) error
	Get(ctx context.Context, username, skill string) (*SkillSummary, error)
	ListByUser(ctx context.Context, username string) ([]SkillSummary, error)
	List(ctx context.Context) ([]SkillSummary, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// User is a login account.
type User struct {
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// UserRepo stores login accounts.
type UserRepo interface {
	Get(ctx context.Context, username string) (*User, error)
	Upsert(ctx context.Context, username, passwordHash string) error
	PurgeDormant(ctx context.Context, cutoff time.Time) (int64, error)
}
