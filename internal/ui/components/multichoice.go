package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/cefrkit/placement/internal/ui/theme"
)

var optionLabels = []string{"A", "B", "C", "D", "E", "F"}

// MultiChoice is a four-option selector. The answer key is unknown while
// the candidate chooses; Reveal marks the outcome afterwards.
type MultiChoice struct {
	Options  []string
	Selected int

	revealed bool
	chosen   int
	correct  int
}

// NewMultiChoice creates a selector with the first option highlighted.
func NewMultiChoice(options []string) MultiChoice {
	return MultiChoice{Options: options, chosen: -1, correct: -1}
}

// Update handles arrow navigation. It returns chosen=true when the
// candidate commits with enter, a number key or a letter key.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, bool) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || m.revealed {
		return m, false
	}

	key := strings.ToUpper(kmsg.String())
	switch key {
	case "UP", "K":
		if m.Selected > 0 {
			m.Selected--
		}
		return m, false
	case "DOWN", "J":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
		return m, false
	case "ENTER":
		return m, true
	}

	for i := range m.Options {
		if key == fmt.Sprint(i+1) || (i < len(optionLabels) && key == optionLabels[i]) {
			m.Selected = i
			return m, true
		}
	}
	return m, false
}

// Reveal records the candidate's choice and the correct option.
func (m *MultiChoice) Reveal(chosen, correct int) {
	m.revealed = true
	m.chosen = chosen
	m.correct = correct
}

// View renders the options.
func (m MultiChoice) View() string {
	var b strings.Builder
	for i, opt := range m.Options {
		label := fmt.Sprint(i + 1)
		if i < len(optionLabels) {
			label = optionLabels[i]
		}
		prefix := "  "
		if i == m.Selected && !m.revealed {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, label, opt)

		style := theme.Unselected
		switch {
		case m.revealed && i == m.correct:
			style = theme.Correct
		case m.revealed && i == m.chosen:
			style = theme.Incorrect
		case m.revealed:
			style = theme.Muted
		case i == m.Selected:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
