package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned for unknown ids and for sessions
	// owned by another user.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionAlreadyEnded is returned when answering a finished session.
	ErrSessionAlreadyEnded = errors.New("session already ended")

	// ErrSessionBusy is returned when another submission for the same
	// session is still in flight.
	ErrSessionBusy = errors.New("session busy: another answer is being processed")

	// ErrUnknownSkill is returned for skills the engine is not configured for.
	ErrUnknownSkill = errors.New("unknown skill")
)

// UnknownItemError means the answered item is not in the active batch.
type UnknownItemError struct {
	ItemID string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown item %q: not in the active batch", e.ItemID)
}

// InvalidChoiceError means the chosen option index is out of range.
type InvalidChoiceError struct {
	ItemID  string
	Choice  int
	Options int
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("choice %d for item %q out of range [0,%d]", e.Choice, e.ItemID, e.Options-1)
}
