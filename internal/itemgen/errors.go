package itemgen

import (
	"fmt"
	"strings"
)

// ContentFormatError means no JSON object could be extracted from the
// generator output.
type ContentFormatError struct {
	Text string
	Err  error
}

func (e *ContentFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("content format: no JSON object in response: %v", e.Err)
	}
	return "content format: no JSON object in response"
}

func (e *ContentFormatError) Unwrap() error {
	return e.Err
}

// ItemFormatError means the extracted object does not describe a valid
// batch. The whole batch is rejected.
type ItemFormatError struct {
	Shape  string
	Index  int // zero-based item position; -1 for batch-level problems
	Reason string
}

func (e *ItemFormatError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("item format (%s) item %d: %s", e.Shape, e.Index+1, e.Reason)
	}
	return fmt.Sprintf("item format (%s): %s", e.Shape, e.Reason)
}

// UniquenessError means the consistency pass found the item did not have
// exactly one defensible answer. It unwraps to an *ItemFormatError so
// callers can treat both the same way.
type UniquenessError struct {
	Correct    int
	Acceptable []int
}

func (e *UniquenessError) Error() string {
	idx := make([]string, len(e.Acceptable))
	for i, a := range e.Acceptable {
		idx[i] = fmt.Sprint(a)
	}
	return fmt.Sprintf("uniqueness check: acceptable options [%s], want only %d",
		strings.Join(idx, ", "), e.Correct)
}

func (e *UniquenessError) Unwrap() error {
	return &ItemFormatError{Shape: string(SkillVocabulary), Index: -1, Reason: "more than one defensible answer"}
}

// GenerationExhaustedError is returned once every attempt allowed by the
// retry policy has failed. Last holds the final failure.
type GenerationExhaustedError struct {
	Skill    Skill
	Attempts int
	Last     error
}

func (e *GenerationExhaustedError) Error() string {
	return fmt.Sprintf("%s generation failed after %d attempts: %v", e.Skill, e.Attempts, e.Last)
}

func (e *GenerationExhaustedError) Unwrap() error {
	return e.Last
}
