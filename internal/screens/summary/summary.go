// Package summary shows the result of a finished placement test.
package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cefrkit/placement/internal/engine"
	"github.com/cefrkit/placement/internal/router"
	"github.com/cefrkit/placement/internal/screen"
	"github.com/cefrkit/placement/internal/ui/layout"
	"github.com/cefrkit/placement/internal/ui/theme"
)

// maxListed caps the vocabulary and structure lines shown.
const maxListed = 8

// SummaryScreen displays a placement result.
type SummaryScreen struct {
	summary *engine.Summary
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

func New(summary *engine.Summary) *SummaryScreen {
	return &SummaryScreen{summary: summary}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Result"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return layout.Centered(theme.Muted, width, "\n\nNo result available.")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(layout.Centered(theme.Title, width, "Test complete"))
	b.WriteString("\n\n")

	badge := theme.Level.Render(sum.FinalLevel.String())
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		badge+"  "+theme.Body.Render(sum.ExamTag)))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Answered: %d        Correct: %d        Started at: %s",
		sum.Answered, sum.Correct, sum.StartLevel)
	b.WriteString(layout.Centered(theme.Body, width, stats))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString(layout.Centered(theme.Muted, width, title))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
		shown := items[:min(len(items), maxListed)]
		b.WriteString(layout.Centered(theme.Body, width, strings.Join(shown, " · ")))
		b.WriteString("\n\n")
	}
	section("Vocabulary to review", sum.TargetVocab)
	section("Structures to review", sum.TargetStructures)

	if !sum.Finished {
		b.WriteString(layout.Centered(theme.Hint, width, "Provisional: the test was not completed."))
	}
	return b.String()
}
