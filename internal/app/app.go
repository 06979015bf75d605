// Package app is the Bubble Tea root model of the terminal client.
package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cefrkit/placement/internal/itemgen"
	"github.com/cefrkit/placement/internal/router"
	"github.com/cefrkit/placement/internal/screen"
	"github.com/cefrkit/placement/internal/screens/home"
	"github.com/cefrkit/placement/internal/screens/session"
	"github.com/cefrkit/placement/internal/ui/layout"
)

// Options configure a terminal run.
type Options struct {
	Tester   session.Tester
	Username string

	// Skills are offered on the home screen.
	Skills []itemgen.Skill

	// Skill, when set, skips the home screen and starts that test.
	Skill      itemgen.Skill
	StartLevel string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router   *router.Router
	username string
	width    int
	height   int
}

func newAppModel(opts Options) AppModel {
	open := func(sk itemgen.Skill) screen.Screen {
		return session.New(opts.Tester, opts.Username, sk, opts.StartLevel)
	}
	r := router.New(home.New(opts.Username, opts.Skills, open))
	if opts.Skill != "" {
		r.Push(open(opts.Skill))
	}
	return AppModel{router: r, username: opts.Username}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, m.router.Update(msg)
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	header := layout.RenderHeader(active.Title(), m.username, m.width)
	footer := layout.RenderFooter(m.hints(active), m.width)

	contentHeight := max(0, m.height-lipgloss.Height(header)-lipgloss.Height(footer))
	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

func (m AppModel) hints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		if h := p.KeyHints(); len(h) > 0 {
			return h
		}
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}, {Key: "Ctrl+C", Description: "Quit"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	if opts.Tester == nil {
		return fmt.Errorf("app: no tester configured")
	}
	p := tea.NewProgram(newAppModel(opts), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
