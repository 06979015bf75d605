// Package difficulty holds the deterministic level-adaptation rules. Every
// rule is a pure function of the current level and the ordered answer
// history, and every result saturates into the six CEFR levels.
package difficulty

import (
	"fmt"

	"github.com/cefrkit/placement/internal/cefr"
)

// Grade is a comparative judgment of a response against its item's level.
type Grade string

const (
	GradeBetter Grade = "better"
	GradeEqual  Grade = "equal"
	GradeWorse  Grade = "worse"
)

// ParseGrade accepts the three grade names, case-sensitively.
func ParseGrade(s string) (Grade, bool) {
	switch g := Grade(s); g {
	case GradeBetter, GradeEqual, GradeWorse:
		return g, true
	}
	return "", false
}

// GradeFor compares a predicted level with the target level.
func GradeFor(predicted, target cefr.Level) Grade {
	switch predicted.Compare(target) {
	case 1:
		return GradeBetter
	case -1:
		return GradeWorse
	}
	return GradeEqual
}

// Outcome is the result of one answered item.
type Outcome struct {
	Correct bool  `json:"correct"`
	Grade   Grade `json:"grade,omitempty"`
}

// Rule maps a level and the history so far to the next level. history
// includes the item that was just answered.
type Rule interface {
	Name() string
	Next(level cefr.Level, history []Outcome) cefr.Level
}

// Finalizer is implemented by rules that adjust the level once more when
// a session completes.
type Finalizer interface {
	Final(level cefr.Level, history []Outcome) cefr.Level
}

// Final applies r's final adjustment when it has one.
func Final(r Rule, level cefr.Level, history []Outcome) cefr.Level {
	if f, ok := r.(Finalizer); ok {
		return f.Final(level, history)
	}
	return level
}

// ByName returns the rule registered under name with default settings.
func ByName(name string) (Rule, error) {
	switch name {
	case "pairwise":
		return Pairwise{}, nil
	case "streak":
		return Streak{Threshold: 2}, nil
	case "passage-block":
		return PassageBlock{Size: 5}, nil
	case "direct-grade":
		return DirectGrade{}, nil
	}
	return nil, fmt.Errorf("unknown difficulty rule %q", name)
}

// Pairwise adapts after every second answer by looking at the latest pair.
// Both correct moves up, both wrong moves down, a split pair holds, except
// at the top level where anything short of two correct moves down.
type Pairwise struct{}

func (Pairwise) Name() string { return "pairwise" }

func (Pairwise) Next(level cefr.Level, history []Outcome) cefr.Level {
	n := len(history)
	if n == 0 || n%2 != 0 {
		return level
	}
	a, b := history[n-2].Correct, history[n-1].Correct
	switch {
	case a && b:
		return level.Step(1)
	case level == cefr.Max:
		return level.Step(-1)
	case !a && !b:
		return level.Step(-1)
	}
	return level
}

// Streak moves one level after Threshold consecutive results in the same
// direction and then clears both streaks. A result that breaks a streak
// clears only the opposite counter.
type Streak struct {
	Threshold int
}

func (s Streak) Name() string { return "streak" }

func (s Streak) Next(level cefr.Level, history []Outcome) cefr.Level {
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = 2
	}

	// Replay the history; only the step taken on the last answer applies.
	correct, wrong, delta := 0, 0, 0
	for _, o := range history {
		delta = 0
		if o.Correct {
			correct++
			wrong = 0
			if correct >= threshold {
				delta = 1
				correct = 0
			}
		} else {
			wrong++
			correct = 0
			if wrong >= threshold {
				delta = -1
				wrong = 0
			}
		}
	}
	return level.Step(delta)
}

// PassageBlock adapts once per block of Size answers by the number
// correct in that block: all correct +2, one wrong +1 (held at the top
// level), two wrong holds, three wrong -1, more -2.
type PassageBlock struct {
	Size int
}

// FinalWindow is the number of most recent answers the final adjustment
// looks at.
const FinalWindow = 5

func (p PassageBlock) Name() string { return "passage-block" }

func (p PassageBlock) size() int {
	if p.Size <= 0 {
		return 5
	}
	return p.Size
}

func (p PassageBlock) Next(level cefr.Level, history []Outcome) cefr.Level {
	size := p.size()
	n := len(history)
	if n == 0 || n%size != 0 {
		return level
	}
	wrong := size - countCorrect(history[n-size:])
	switch wrong {
	case 0:
		return level.Step(2)
	case 1:
		if level == cefr.Max {
			return level
		}
		return level.Step(1)
	case 2:
		return level
	case 3:
		return level.Step(-1)
	}
	return level.Step(-2)
}

// Final nudges the level by the last FinalWindow answers of the whole
// session: four or more correct +1, one or fewer -1.
func (p PassageBlock) Final(level cefr.Level, history []Outcome) cefr.Level {
	if len(history) == 0 {
		return level
	}
	correct := countCorrect(history[max(0, len(history)-FinalWindow):])
	switch {
	case correct >= 4:
		return level.Step(1)
	case correct <= 1:
		return level.Step(-1)
	}
	return level
}

// DirectGrade follows the grade of the latest answer.
type DirectGrade struct{}

func (DirectGrade) Name() string { return "direct-grade" }

func (DirectGrade) Next(level cefr.Level, history []Outcome) cefr.Level {
	if len(history) == 0 {
		return level
	}
	switch history[len(history)-1].Grade {
	case GradeBetter:
		return level.Step(1)
	case GradeWorse:
		return level.Step(-1)
	}
	return level
}

func countCorrect(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Correct {
			n++
		}
	}
	return n
}
