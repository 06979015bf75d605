// Package home is the skill picker shown when the terminal client starts.
package home

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cefrkit/placement/internal/itemgen"
	"github.com/cefrkit/placement/internal/router"
	"github.com/cefrkit/placement/internal/screen"
	"github.com/cefrkit/placement/internal/ui/components"
	"github.com/cefrkit/placement/internal/ui/layout"
	"github.com/cefrkit/placement/internal/ui/theme"
)

var skillBlurbs = map[itemgen.Skill]string{
	itemgen.SkillReading:    "passages with comprehension questions",
	itemgen.SkillListening:  "short clips, one question each",
	itemgen.SkillVocabulary: "words in context",
	itemgen.SkillSpeaking:   "spoken prompts, typed here",
}

// HomeScreen lists the skills that can be tested.
type HomeScreen struct {
	menu     components.Menu
	username string
}

var _ screen.Screen = (*HomeScreen)(nil)

// New builds the menu. open returns the test screen for a skill.
func New(username string, skills []itemgen.Skill, open func(itemgen.Skill) screen.Screen) *HomeScreen {
	items := make([]components.MenuItem, 0, len(skills)+1)
	for _, sk := range skills {
		items = append(items, components.MenuItem{
			Label:  strings.ToUpper(string(sk)),
			Detail: skillBlurbs[sk],
			Action: func() tea.Cmd {
				return func() tea.Msg { return router.PushScreenMsg{Screen: open(sk)} }
			},
		})
	}
	items = append(items, components.MenuItem{Label: "QUIT", Action: func() tea.Cmd { return tea.Quit }})
	return &HomeScreen{menu: components.NewMenu(items), username: username}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Title() string {
	return "Choose a skill"
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(layout.Centered(theme.Title, width, "English placement test"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(theme.Subtitle, width,
		"Items adapt to your answers. Pick a skill to begin, "+h.username+"."))
	b.WriteString("\n\n")

	menu := theme.Card.Render(strings.TrimRight(h.menu.View(), "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, menu))
	return b.String()
}
