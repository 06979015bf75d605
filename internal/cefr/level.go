// Package cefr models the six-level CEFR proficiency scale used as the
// difficulty axis for every skill.
package cefr

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownLevel is returned when a string is not one of the six levels.
var ErrUnknownLevel = errors.New("unknown CEFR level")

// Level is an ordered CEFR level. The zero value is A1.
type Level int

const (
	A1 Level = iota
	A2
	B1
	B2
	C1
	C2
)

// Min and Max are the saturation bounds for every level step.
const (
	Min = A1
	Max = C2
)

var names = [...]string{"A1", "A2", "B1", "B2", "C1", "C2"}

// Levels returns all levels in ascending order.
func Levels() []Level {
	return []Level{A1, A2, B1, B2, C1, C2}
}

// Parse converts "b1", " B1 " etc. into a Level.
func Parse(s string) (Level, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return Level(i), nil
		}
	}
	return A1, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// MustParse is Parse for constants. It panics on bad input.
func MustParse(s string) Level {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the canonical name, e.g. "B2".
func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return names[l]
}

// Valid reports whether l is one of the six levels.
func (l Level) Valid() bool {
	return l >= Min && l <= Max
}

// Index returns the zero-based position of l on the scale.
func (l Level) Index() int { return int(l) }

// FromIndex returns the level at position i, clamped to the scale.
func FromIndex(i int) Level {
	switch {
	case i < int(Min):
		return Min
	case i > int(Max):
		return Max
	}
	return Level(i)
}

// Step moves l by delta levels, saturating at A1 and C2.
func (l Level) Step(delta int) Level {
	return FromIndex(int(l) + delta)
}

// Compare returns -1, 0 or 1 when l is below, equal to or above other.
func (l Level) Compare(other Level) int {
	switch {
	case l < other:
		return -1
	case l > other:
		return 1
	}
	return 0
}

// ExamTag returns the exam family a level is flavoured after.
func (l Level) ExamTag() string {
	switch {
	case l <= A2:
		return "KET"
	case l == B1:
		return "PET"
	default:
		return "FCE"
	}
}

// Average returns the level nearest to the mean position of levels.
// An empty input yields B1.
func Average(levels []Level) Level {
	if len(levels) == 0 {
		return B1
	}
	sum := 0
	for _, l := range levels {
		sum += FromIndex(int(l)).Index()
	}
	return FromIndex(int(math.Round(float64(sum) / float64(len(levels)))))
}

// MarshalText encodes the level as its name, so JSON and YAML carry "B1"
// instead of an integer.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, int(l))
	}
	return []byte(names[l]), nil
}

// UnmarshalText parses a level name.
func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
