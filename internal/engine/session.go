package engine

import (
	"slices"
	"time"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/difficulty"
	"github.com/cefrkit/placement/internal/itemgen"
)

// Phase is the lifecycle position of a session.
type Phase string

const (
	PhaseActive   Phase = "active"
	PhaseFinished Phase = "finished"
)

// Session is the state of one test-taker working through one skill.
type Session struct {
	ID       string        `json:"id"`
	Username string        `json:"username"`
	Skill    itemgen.Skill `json:"skill"`

	StartLevel cefr.Level `json:"start_level"`
	Level      cefr.Level `json:"level"`

	// Total is the item budget; Asked counts answered items.
	Total int `json:"total"`
	Asked int `json:"asked"`

	// History is the ordered correctness record the difficulty rule reads.
	History []difficulty.Outcome `json:"history"`

	// Answers is the detailed per-item log, in answer order.
	Answers []AnswerRecord `json:"answers"`

	// Active holds the presented items that are still unanswered.
	Active []itemgen.Item `json:"active"`

	// Pending holds generated items not yet presented. They never leave
	// the server.
	Pending []itemgen.Item `json:"pending,omitempty"`

	// Shown holds every item ever presented, in presentation order.
	Shown []itemgen.Item `json:"shown"`

	Phase   Phase    `json:"phase"`
	Summary *Summary `json:"summary,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Finished reports whether the session accepts no more answers.
func (s *Session) Finished() bool {
	return s.Phase == PhaseFinished
}

// Remaining is the number of items not yet answered.
func (s *Session) Remaining() int {
	return max(0, s.Total-s.Asked)
}

// ActiveItem returns the unanswered item with the given id.
func (s *Session) ActiveItem(id string) (itemgen.Item, bool) {
	for _, it := range s.Active {
		if it.ID == id {
			return it, true
		}
	}
	return itemgen.Item{}, false
}

// ShownItem returns any item this session has presented.
func (s *Session) ShownItem(id string) (itemgen.Item, bool) {
	for _, it := range s.Shown {
		if it.ID == id {
			return it, true
		}
	}
	return itemgen.Item{}, false
}

// Clone returns a copy that shares no mutable state with s. Items are
// immutable and are copied by value.
func (s *Session) Clone() *Session {
	c := *s
	c.History = slices.Clone(s.History)
	c.Answers = slices.Clone(s.Answers)
	c.Active = slices.Clone(s.Active)
	c.Pending = slices.Clone(s.Pending)
	c.Shown = slices.Clone(s.Shown)
	if s.Summary != nil {
		sum := *s.Summary
		c.Summary = &sum
	}
	return &c
}

// compact returns a copy without the item bodies and the answer log; the
// summary keeps its own copy of the answers.
func (s *Session) compact() *Session {
	c := s.Clone()
	c.Answers = nil
	c.Active = nil
	c.Pending = nil
	c.Shown = nil
	return c
}

func (s *Session) removeActive(id string) {
	s.Active = slices.DeleteFunc(s.Active, func(it itemgen.Item) bool { return it.ID == id })
}

// Answer is one submitted response.
type Answer struct {
	ItemID string `json:"item_id"`

	// Choice is the option index for multiple-choice items.
	Choice int `json:"choice"`

	// Transcript and Audio carry a speaking response.
	Transcript string `json:"transcript,omitempty"`
	Audio      []byte `json:"-"`
}

// AnswerRecord is the log entry kept for every answered item.
type AnswerRecord struct {
	ItemID       string           `json:"item_id"`
	Number       int              `json:"number"`
	Choice       int              `json:"choice"`
	CorrectIndex int              `json:"correct_index"`
	Correct      bool             `json:"correct"`
	Rationale    string           `json:"rationale,omitempty"`
	Level        cefr.Level       `json:"level"`
	ExamTag      string           `json:"exam_tag"`
	Grade        difficulty.Grade `json:"grade,omitempty"`

	// Speaking only.
	Transcript         string   `json:"transcript,omitempty"`
	Feedback           string   `json:"feedback,omitempty"`
	PredictedLevel     string   `json:"predicted_level,omitempty"`
	PronunciationScore *float64 `json:"pronunciation_score,omitempty"`

	// LevelAfter is the session level once this answer was applied.
	LevelAfter cefr.Level `json:"level_after"`
	AnsweredAt time.Time  `json:"answered_at"`
}

// Turn is what a caller gets back from Start and Submit.
type Turn struct {
	SessionID string        `json:"session_id"`
	Skill     itemgen.Skill `json:"skill"`
	Level     cefr.Level    `json:"level"`
	ExamTag   string        `json:"exam_tag"`
	Asked     int           `json:"asked"`
	Total     int           `json:"total"`
	Remaining int           `json:"remaining"`

	// Items is the active batch still awaiting answers.
	Items []itemgen.Item `json:"items"`

	// Results holds the log entries for the answers just submitted.
	Results []AnswerRecord `json:"results,omitempty"`

	Finished bool     `json:"finished"`
	Summary  *Summary `json:"summary,omitempty"`
}

func newTurn(s *Session, results []AnswerRecord) *Turn {
	return &Turn{
		SessionID: s.ID,
		Skill:     s.Skill,
		Level:     s.Level,
		ExamTag:   s.Level.ExamTag(),
		Asked:     s.Asked,
		Total:     s.Total,
		Remaining: s.Remaining(),
		Items:     slices.Clone(s.Active),
		Results:   results,
		Finished:  s.Finished(),
		Summary:   s.Summary,
	}
}
