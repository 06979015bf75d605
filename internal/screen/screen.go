// Package screen defines the contract between the router and the
// terminal screens of the placement client.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/cefrkit/placement/internal/ui/layout"
)

// Screen is one full-body view in the router stack.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the body only; the app draws header and footer.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider lets a screen replace the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}
