package api

import (
	"encoding/json"
	"time"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/engine"
	"github.com/cefrkit/placement/internal/itemgen"
	"github.com/cefrkit/placement/internal/store"
)

// itemView is an item as the candidate sees it: no answer key.
type itemView struct {
	ID            string        `json:"id"`
	Skill         itemgen.Skill `json:"skill"`
	Level         cefr.Level    `json:"level"`
	ExamTag       string        `json:"exam_tag"`
	Title         string        `json:"title,omitempty"`
	Stimulus      string        `json:"stimulus"`
	Question      string        `json:"question,omitempty"`
	Options       []string      `json:"options,omitempty"`
	TaskType      string        `json:"task_type,omitempty"`
	PrepSeconds   int           `json:"prep_seconds,omitempty"`
	RecordSeconds int           `json:"record_seconds,omitempty"`
	Guidance      string        `json:"guidance,omitempty"`
	GroupID       string        `json:"group_id,omitempty"`
}

func newItemViews(items []itemgen.Item) []itemView {
	out := make([]itemView, len(items))
	for i, it := range items {
		out[i] = itemView{
			ID:            it.ID,
			Skill:         it.Skill,
			Level:         it.Level,
			ExamTag:       it.ExamTag,
			Title:         it.Title,
			Stimulus:      it.Stimulus,
			Question:      it.Question,
			Options:       it.Options,
			TaskType:      it.TaskType,
			PrepSeconds:   it.PrepSeconds,
			RecordSeconds: it.RecordSeconds,
			Guidance:      it.Guidance,
			GroupID:       it.GroupID,
		}
	}
	return out
}

type turnView struct {
	SessionID string                `json:"session_id"`
	Skill     itemgen.Skill         `json:"skill"`
	Level     cefr.Level            `json:"level"`
	ExamTag   string                `json:"exam_tag"`
	Asked     int                   `json:"asked"`
	Total     int                   `json:"total"`
	Remaining int                   `json:"remaining"`
	Items     []itemView            `json:"items"`
	Results   []engine.AnswerRecord `json:"results,omitempty"`
	Finished  bool                  `json:"finished"`
	Summary   *engine.Summary       `json:"summary,omitempty"`
}

func newTurnView(t *engine.Turn) turnView {
	return turnView{
		SessionID: t.SessionID,
		Skill:     t.Skill,
		Level:     t.Level,
		ExamTag:   t.ExamTag,
		Asked:     t.Asked,
		Total:     t.Total,
		Remaining: t.Remaining,
		Items:     newItemViews(t.Items),
		Results:   t.Results,
		Finished:  t.Finished,
		Summary:   t.Summary,
	}
}

type sessionView struct {
	ID         string                `json:"id"`
	Skill      itemgen.Skill         `json:"skill"`
	StartLevel cefr.Level            `json:"start_level"`
	Level      cefr.Level            `json:"level"`
	ExamTag    string                `json:"exam_tag"`
	Asked      int                   `json:"asked"`
	Total      int                   `json:"total"`
	Items      []itemView            `json:"items"`
	Answers    []engine.AnswerRecord `json:"answers"`
	Finished   bool                  `json:"finished"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

func newSessionView(s *engine.Session) sessionView {
	answers := s.Answers
	if answers == nil {
		answers = []engine.AnswerRecord{}
	}
	return sessionView{
		ID:         s.ID,
		Skill:      s.Skill,
		StartLevel: s.StartLevel,
		Level:      s.Level,
		ExamTag:    s.Level.ExamTag(),
		Asked:      s.Asked,
		Total:      s.Total,
		Items:      newItemViews(s.Active),
		Answers:    answers,
		Finished:   s.Finished(),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

type summaryRowView struct {
	Skill          string          `json:"skill"`
	SessionID      string          `json:"session_id,omitempty"`
	ItemsAnswered  int             `json:"items_answered"`
	CorrectTotal   int             `json:"correct_total"`
	IncorrectTotal int             `json:"incorrect_total"`
	StartLevel     string          `json:"start_level"`
	EndLevel       string          `json:"end_level"`
	Finished       bool            `json:"finished"`
	Detail         json.RawMessage `json:"detail,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func newSummaryRowViews(rows []store.SkillSummary) []summaryRowView {
	out := make([]summaryRowView, len(rows))
	for i, r := range rows {
		v := summaryRowView{
			Skill:          r.Skill,
			SessionID:      r.SessionID,
			ItemsAnswered:  r.ItemsAnswered,
			CorrectTotal:   r.CorrectTotal,
			IncorrectTotal: r.IncorrectTotal,
			StartLevel:     r.StartLevel,
			EndLevel:       r.EndLevel,
			Finished:       r.Finished,
			UpdatedAt:      r.UpdatedAt,
		}
		if json.Valid([]byte(r.Payload)) {
			v.Detail = json.RawMessage(r.Payload)
		}
		out[i] = v
	}
	return out
}
