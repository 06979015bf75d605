package engine

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefrkit/placement/internal/itemgen"
	"github.com/cefrkit/placement/internal/store"
)

func TestStoreSinkLatestWins(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "sink.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	f := &fakeFactory{skill: itemgen.SkillReading}
	e, err := New(Options{
		Skills: map[itemgen.Skill]SkillConfig{itemgen.SkillReading: ReadingConfig(f)},
		Sink:   StoreSink{Summaries: st.SummaryRepo()},
	})
	require.NoError(t, err)
	ctx := context.Background()

	turn, err := e.Start(ctx, "ana", itemgen.SkillReading, "B1")
	require.NoError(t, err)

	row, err := st.SummaryRepo().Get(ctx, "ana", "reading")
	require.NoError(t, err)
	assert.Equal(t, 0, row.ItemsAnswered)
	assert.False(t, row.Finished)

	turn, err = e.Submit(ctx, "ana", turn.SessionID, answerAll(turn.Items, true, true, false, true, true)...)
	require.NoError(t, err)

	row, err = st.SummaryRepo().Get(ctx, "ana", "reading")
	require.NoError(t, err)
	assert.Equal(t, turn.SessionID, row.SessionID)
	assert.Equal(t, 5, row.ItemsAnswered)
	assert.Equal(t, 4, row.CorrectTotal)
	assert.Equal(t, 1, row.IncorrectTotal)
	assert.Equal(t, "B1", row.StartLevel)
	assert.Equal(t, "B2", row.EndLevel)

	var payload Summary
	require.NoError(t, json.Unmarshal([]byte(row.Payload), &payload))
	assert.Len(t, payload.Answers, 5)
}
