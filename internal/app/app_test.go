package app

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefrkit/placement/internal/engine"
	"github.com/cefrkit/placement/internal/itemgen"
)

type nopTester struct{}

func (nopTester) Start(context.Context, string, itemgen.Skill, string) (*engine.Turn, error) {
	return &engine.Turn{SessionID: "s", Finished: true}, nil
}

func (nopTester) Submit(context.Context, string, string, ...engine.Answer) (*engine.Turn, error) {
	return &engine.Turn{Finished: true}, nil
}

func TestDirectSkillSkipsHome(t *testing.T) {
	m := newAppModel(Options{Tester: nopTester{}, Username: "ana",
		Skills: []itemgen.Skill{itemgen.SkillReading}, Skill: itemgen.SkillReading})
	assert.Equal(t, 2, m.router.Depth())
	assert.Equal(t, "Reading test", m.router.Active().Title())
	assert.NotNil(t, m.Init())
}

func TestHintsFollowActiveScreen(t *testing.T) {
	m := newAppModel(Options{Tester: nopTester{}, Username: "ana",
		Skills: []itemgen.Skill{itemgen.SkillReading}})
	assert.Equal(t, "Enter", m.hints(m.router.Active())[1].Key)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	am := updated.(AppModel)
	assert.Equal(t, 100, am.width)
	_ = am.View()
}

func TestCtrlCQuits(t *testing.T) {
	m := newAppModel(Options{Tester: nopTester{}})
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRunRequiresTester(t *testing.T) {
	require.Error(t, Run(context.Background(), Options{}))
}
