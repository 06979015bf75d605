package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/cefrkit/placement/internal/ui/components"
	"github.com/cefrkit/placement/internal/ui/layout"
	"github.com/cefrkit/placement/internal/ui/theme"
)

func (s *SessionScreen) View(width, height int) string {
	switch s.phase {
	case phaseLoading:
		return renderNotice(width, "Preparing your test...")
	case phaseError:
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render(fmt.Sprintf("\n\n\nError: %s\n\nPress any key to go back.", s.errMsg))
	case phaseQuitConfirm:
		return renderQuitConfirm(width)
	}

	var b strings.Builder
	b.WriteString(s.renderStatus(width))
	b.WriteString("\n\n")
	b.WriteString(s.renderItem(width))

	switch s.phase {
	case phaseChecking:
		b.WriteString("\n")
		b.WriteString(layout.Centered(theme.Hint, width, "Checking your answer..."))
	case phaseFeedback:
		b.WriteString("\n")
		b.WriteString(s.renderFeedback(width))
	}
	return b.String()
}

// renderStatus is the line with the current level and the progress bar.
func (s *SessionScreen) renderStatus(width int) string {
	if s.turn == nil {
		return ""
	}
	level := theme.Level.Render(s.turn.Level.String())
	tag := theme.Muted.Render(s.turn.ExamTag)
	bar := components.NewProgressBar("Items", s.turn.Asked, s.turn.Total, min(50, width/2))
	left := "  " + level + " " + tag
	pad := max(1, width-lipgloss.Width(left)-lipgloss.Width(bar.View())-4)
	return left + strings.Repeat(" ", pad) + bar.View()
}

func (s *SessionScreen) renderItem(width int) string {
	it := s.item
	if it == nil {
		return ""
	}
	tw := layout.TextWidth(width)
	text := lipgloss.NewStyle().Width(tw).Foreground(theme.Text)

	var b strings.Builder
	if it.Title != "" {
		b.WriteString(theme.Selected.Render(it.Title))
		b.WriteString("\n\n")
	}
	if it.Stimulus != "" {
		b.WriteString(text.Render(it.Stimulus))
		b.WriteString("\n\n")
	}
	if it.Question != "" {
		b.WriteString(text.Bold(true).Render(it.Question))
		b.WriteString("\n\n")
	}

	if it.MultipleChoice() {
		b.WriteString(s.choice.View())
	} else {
		if it.Guidance != "" {
			b.WriteString(theme.Hint.Width(tw).Render(it.Guidance))
			b.WriteString("\n")
		}
		if it.RecordSeconds > 0 {
			b.WriteString(theme.Hint.Render(fmt.Sprintf("Aim for about %d seconds of speech.", it.RecordSeconds)))
			b.WriteString("\n")
		}
		b.WriteString("\nYour answer: " + s.input.View())
	}

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, b.String())
}

func (s *SessionScreen) renderFeedback(width int) string {
	rec := s.last
	if rec == nil {
		return ""
	}
	tw := layout.TextWidth(width)

	var b strings.Builder
	if rec.Correct {
		b.WriteString(layout.Centered(theme.Correct, width, "Correct"))
	} else {
		b.WriteString(layout.Centered(theme.Incorrect, width, "Not quite"))
	}
	b.WriteString("\n")

	if rec.Rationale != "" {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Body.Width(tw).Render(rec.Rationale)))
		b.WriteString("\n")
	}
	if rec.Feedback != "" {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Body.Width(tw).Render(rec.Feedback)))
		b.WriteString("\n")
	}
	if rec.PredictedLevel != "" {
		b.WriteString(layout.Centered(theme.Muted, width, "Estimated level: "+rec.PredictedLevel))
		b.WriteString("\n")
	}
	if rec.PronunciationScore != nil {
		b.WriteString(layout.Centered(theme.Muted, width, fmt.Sprintf("Pronunciation: %.0f/100", *rec.PronunciationScore)))
		b.WriteString("\n")
	}
	if rec.LevelAfter != rec.Level {
		b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true), width,
			fmt.Sprintf("Level %s → %s", rec.Level, rec.LevelAfter)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(layout.Centered(theme.Hint, width, "Press any key to continue..."))
	return b.String()
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(layout.Centered(theme.Body.Bold(true), width, "Leave this test?"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(theme.Muted, width, "Unfinished tests are discarded after a while."))
	b.WriteString("\n\n")
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Error), width, "[Y] Yes, leave"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(lipgloss.NewStyle().Foreground(theme.Primary), width, "[N] No, keep going"))
	return b.String()
}

func renderNotice(width int, text string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n\n" + text)
}
