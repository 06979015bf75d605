// Package session is the screen that walks a candidate through one
// placement test, item by item, against the engine.
package session

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/cefrkit/placement/internal/engine"
	"github.com/cefrkit/placement/internal/itemgen"
	"github.com/cefrkit/placement/internal/router"
	"github.com/cefrkit/placement/internal/screen"
	"github.com/cefrkit/placement/internal/screens/summary"
	"github.com/cefrkit/placement/internal/speaking"
	"github.com/cefrkit/placement/internal/ui/components"
	"github.com/cefrkit/placement/internal/ui/layout"
)

// callTimeout bounds one engine call; generation can take a while.
const callTimeout = 3 * time.Minute

// Tester is the part of the engine the screen drives.
type Tester interface {
	Start(ctx context.Context, username string, skill itemgen.Skill, startLevel string) (*engine.Turn, error)
	Submit(ctx context.Context, username, sessionID string, answers ...engine.Answer) (*engine.Turn, error)
}

type phase int

const (
	phaseLoading phase = iota
	phaseAnswering
	phaseChecking
	phaseFeedback
	phaseQuitConfirm
	phaseError
)

// SessionScreen implements screen.Screen for a running test.
type SessionScreen struct {
	tester     Tester
	username   string
	skill      itemgen.Skill
	startLevel string

	phase  phase
	resume phase
	turn   *engine.Turn
	item   *itemgen.Item
	last   *engine.AnswerRecord

	choice components.MultiChoice
	input  components.TextInput
	errMsg string
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)

// New creates a screen that starts a test of skill when pushed. An empty
// startLevel uses the engine default.
func New(tester Tester, username string, skill itemgen.Skill, startLevel string) *SessionScreen {
	return &SessionScreen{
		tester:     tester,
		username:   username,
		skill:      skill,
		startLevel: startLevel,
	}
}

func (s *SessionScreen) Init() tea.Cmd {
	s.phase = phaseLoading
	tester, user, skill, level := s.tester, s.username, s.skill, s.startLevel
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		turn, err := tester.Start(ctx, user, skill, level)
		return turnMsg{Turn: turn, Err: err}
	}
}

func (s *SessionScreen) Title() string {
	return titleCase(string(s.skill)) + " test"
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseQuitConfirm:
		return []layout.KeyHint{{Key: "Y", Description: "Leave test"}, {Key: "N", Description: "Keep going"}}
	case phaseFeedback, phaseError:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	case phaseAnswering:
		if s.item != nil && s.item.MultipleChoice() {
			return []layout.KeyHint{
				{Key: "↑↓", Description: "Choose"},
				{Key: "A-D", Description: "Answer"},
				{Key: "Enter", Description: "Submit"},
				{Key: "Esc", Description: "Leave"},
			}
		}
		return []layout.KeyHint{{Key: "Enter", Description: "Submit"}, {Key: "Esc", Description: "Leave"}}
	}
	return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case turnMsg:
		return s.handleTurn(msg)
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	if s.phase == phaseAnswering && s.item != nil && !s.item.MultipleChoice() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *SessionScreen) handleTurn(msg turnMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.phase = phaseError
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.turn = msg.Turn
	if len(msg.Turn.Results) > 0 {
		rec := msg.Turn.Results[len(msg.Turn.Results)-1]
		s.last = &rec
		if s.item != nil && s.item.MultipleChoice() {
			s.choice.Reveal(rec.Choice, rec.CorrectIndex)
		}
		s.phase = phaseFeedback
		return s, nil
	}
	return s, s.next()
}

// next presents the first unanswered item of the current turn, or the
// result once the test is over.
func (s *SessionScreen) next() tea.Cmd {
	s.last = nil
	if s.turn.Finished || len(s.turn.Items) == 0 {
		return s.showSummary()
	}
	it := s.turn.Items[0]
	s.item = &it
	s.phase = phaseAnswering
	if it.MultipleChoice() {
		s.choice = components.NewMultiChoice(it.Options)
		return nil
	}
	s.input = components.NewTextInput("Type what you would say...", speaking.MaxTranscriptRunes)
	return s.input.Init()
}

func (s *SessionScreen) showSummary() tea.Cmd {
	sum := s.turn.Summary
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: summary.New(sum)}
	}
}

func (s *SessionScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	switch s.phase {
	case phaseError:
		return s, func() tea.Msg { return router.PopScreenMsg{} }

	case phaseQuitConfirm:
		switch key {
		case "y", "Y":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.phase = s.resume
		}
		return s, nil

	case phaseFeedback:
		return s, s.next()

	case phaseAnswering:
		if key == "esc" {
			s.resume = s.phase
			s.phase = phaseQuitConfirm
			return s, nil
		}
		if s.item.MultipleChoice() {
			var chosen bool
			s.choice, chosen = s.choice.Update(msg)
			if chosen {
				return s, s.submit(engine.Answer{ItemID: s.item.ID, Choice: s.choice.Selected})
			}
			return s, nil
		}
		if key == "enter" {
			if s.input.Value() == "" {
				return s, nil
			}
			return s, s.submit(engine.Answer{ItemID: s.item.ID, Choice: -1, Transcript: s.input.Value()})
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *SessionScreen) submit(ans engine.Answer) tea.Cmd {
	s.phase = phaseChecking
	tester, user, id := s.tester, s.username, s.turn.SessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		turn, err := tester.Submit(ctx, user, id, ans)
		return turnMsg{Turn: turn, Err: err}
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
