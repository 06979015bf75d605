package session

import "github.com/cefrkit/placement/internal/engine"

// turnMsg carries the engine's reply to Start or Submit.
type turnMsg struct {
	Turn *engine.Turn
	Err  error
}
