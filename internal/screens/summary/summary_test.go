package summary

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/engine"
	"github.com/cefrkit/placement/internal/router"
)

func testSummary() *engine.Summary {
	return &engine.Summary{
		SessionID:        "s1",
		Skill:            "reading",
		Finished:         true,
		Total:            10,
		Answered:         10,
		Correct:          8,
		Incorrect:        2,
		StartLevel:       cefr.B1,
		FinalLevel:       cefr.C1,
		ExamTag:          cefr.C1.ExamTag(),
		TargetVocab:      []string{"notwithstanding", "albeit"},
		TargetStructures: []string{"inversion"},
	}
}

func TestSummaryScreenTitle(t *testing.T) {
	assert.Equal(t, "Result", New(testSummary()).Title())
}

func TestSummaryScreenDisplay(t *testing.T) {
	view := New(testSummary()).View(80, 24)
	assert.Contains(t, view, "C1")
	assert.Contains(t, view, "notwithstanding")
	assert.Contains(t, view, "inversion")
	assert.NotContains(t, view, "Provisional")
}

func TestSummaryScreenProvisional(t *testing.T) {
	sum := testSummary()
	sum.Finished = false
	assert.Contains(t, New(sum).View(80, 24), "Provisional")
}

func TestSummaryScreenNil(t *testing.T) {
	assert.Contains(t, New(nil).View(80, 24), "No result")
}

func TestSummaryScreenReturnsHome(t *testing.T) {
	for _, code := range []rune{tea.KeyEnter, tea.KeyEscape} {
		_, cmd := New(testSummary()).Update(tea.KeyPressMsg{Code: code})
		require.NotNil(t, cmd)
		assert.IsType(t, router.PopToRootMsg{}, cmd())
	}
}

func TestSummaryScreenKeyHints(t *testing.T) {
	assert.Len(t, New(testSummary()).KeyHints(), 2)
}
