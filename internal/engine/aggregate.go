package engine

import (
	"slices"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/itemgen"
)

// Caps on the aggregated feedback lists.
const (
	MaxSummaryVocab      = 20
	MaxSummaryStructures = 12
)

// Summary is the reduced result of a session.
type Summary struct {
	SessionID string        `json:"session_id"`
	Username  string        `json:"username"`
	Skill     itemgen.Skill `json:"skill"`
	Finished  bool          `json:"finished"`

	Total     int `json:"total"`
	Answered  int `json:"answered"`
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`

	StartLevel cefr.Level `json:"start_level"`
	FinalLevel cefr.Level `json:"final_level"`
	ExamTag    string     `json:"exam_tag"`

	TargetVocab      []string `json:"target_vocab"`
	TargetStructures []string `json:"target_structures"`

	Answers []AnswerRecord `json:"answers"`
}

// Finalize reduces a session into its summary. It reads s and never
// modifies it, so repeated calls on the same session are identical.
func Finalize(s *Session) Summary {
	correct := 0
	for _, o := range s.History {
		if o.Correct {
			correct++
		}
	}

	var vocab, structures []string
	for _, it := range s.Shown {
		vocab = appendUnique(vocab, it.TargetVocab, MaxSummaryVocab)
		structures = appendUnique(structures, it.TargetStructures, MaxSummaryStructures)
	}
	if vocab == nil {
		vocab = []string{}
	}
	if structures == nil {
		structures = []string{}
	}

	answers := slices.Clone(s.Answers)
	if answers == nil {
		answers = []AnswerRecord{}
	}

	return Summary{
		SessionID:        s.ID,
		Username:         s.Username,
		Skill:            s.Skill,
		Finished:         s.Finished(),
		Total:            s.Total,
		Answered:         len(s.History),
		Correct:          correct,
		Incorrect:        len(s.History) - correct,
		StartLevel:       s.StartLevel,
		FinalLevel:       s.Level,
		ExamTag:          s.Level.ExamTag(),
		TargetVocab:      vocab,
		TargetStructures: structures,
		Answers:          answers,
	}
}

// appendUnique appends values not yet in dst, keeping first-seen order,
// until dst holds limit entries.
func appendUnique(dst, values []string, limit int) []string {
	for _, v := range values {
		if len(dst) >= limit {
			break
		}
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
