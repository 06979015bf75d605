package writing

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/llm"
	"github.com/cefrkit/placement/internal/speaking"
	"github.com/cefrkit/placement/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "writing.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPrompt(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText(`{"prompt": "Describe your favourite place to relax."}`)
	svc := NewService(mock, nil, nil)

	p, err := svc.Prompt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Describe your favourite place to relax.", p)
	require.Len(t, mock.Calls, 1)
	assert.Equal(t, "writing-prompt", mock.Calls[0].Schema.Name)
}

func TestPromptFallsBack(t *testing.T) {
	for name, resp := range map[string]llm.MockResponse{
		"provider error": {Err: &llm.ErrProviderUnavailable{}},
		"empty prompt":   {Text: `{"prompt": "  "}`},
		"not json":       {Text: "Sorry, I cannot help."},
	} {
		svc := NewService(llm.NewMockProvider(resp), nil, nil)
		p, err := svc.Prompt(context.Background())
		require.NoError(t, err, name)
		assert.Equal(t, DefaultPrompt, p, name)
	}
}

func TestScoreRejectsEmpty(t *testing.T) {
	svc := NewService(llm.NewMockProvider(), nil, nil)
	_, err := svc.Score(context.Background(), " \n ")
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("err = %v, want ErrEmptyText", err)
	}
}

func TestScoreUsesRubric(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText(`{"band": "b2", "scores": {"accuracy": 3.5, "task_response": 4}, "overall": 3.75,
		"comments": {"global": "Well organised.", "inline": [{"span": "alot", "comment": "a lot"}]}}`)
	svc := NewService(mock, nil, nil)

	r, err := svc.Score(context.Background(), "One two three four five.")
	require.NoError(t, err)
	assert.Equal(t, cefr.B2, r.Band)
	assert.Equal(t, 3.75, r.Overall)
	assert.Equal(t, 3.5, r.Scores["accuracy"])
	assert.Equal(t, 5, r.WordCount)
	assert.Equal(t, "Well organised.", r.Comments.Global)
	require.Len(t, r.Comments.Inline, 1)
	assert.Equal(t, speaking.SourceLLM, r.Source)
}

func TestScoreClampsLongText(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText(`{"band": "C1", "scores": {}, "overall": 4, "word_count": 2000}`)
	svc := NewService(mock, nil, nil)

	_, err := svc.Score(context.Background(), strings.Repeat("word ", 3000))
	require.NoError(t, err)
	prompt := mock.Calls[0].Messages[0].Content
	sent := prompt[strings.Index(prompt, "Student writing:\n")+len("Student writing:\n"):]
	assert.Equal(t, MaxTextRunes, len([]rune(sent)))
}

func TestScoreFallsBackToHeuristic(t *testing.T) {
	text := "I like my town. It is small and quiet."
	for name, resp := range map[string]llm.MockResponse{
		"provider error": {Err: &llm.ErrRateLimit{Err: errors.New("429")}},
		"bad band":       {Text: `{"band": "Z9", "scores": {}, "overall": 1}`},
		"prose":          {Text: "B1, probably."},
	} {
		svc := NewService(llm.NewMockProvider(resp), nil, nil)
		r, err := svc.Score(context.Background(), text)
		require.NoError(t, err, name)
		assert.Equal(t, speaking.SourceHeuristic, r.Source, name)
		assert.Equal(t, speaking.EstimateLevel(text).Level, r.Band, name)
		assert.Equal(t, 9, r.WordCount, name)
	}
}

func TestSaveKeepsLatest(t *testing.T) {
	st := openStore(t)
	svc := NewService(llm.NewMockProvider(), st.SummaryRepo(), nil)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "ana", &Rubric{Band: cefr.A2, Scores: map[string]float64{}}))
	require.NoError(t, svc.Save(ctx, "ana", &Rubric{Band: cefr.C1, Scores: map[string]float64{}}))

	row, err := st.SummaryRepo().Get(ctx, "ana", Skill)
	require.NoError(t, err)
	assert.Equal(t, "C1", row.EndLevel)
	assert.True(t, row.Finished)

	var r Rubric
	require.NoError(t, json.Unmarshal([]byte(row.Payload), &r))
	assert.Equal(t, cefr.C1, r.Band)
}

func TestDefaultBand(t *testing.T) {
	assert.Equal(t, cefr.B1, DefaultBand(nil))
	assert.Equal(t, cefr.B2, DefaultBand([]cefr.Level{cefr.B1, cefr.C1}))

	st := openStore(t)
	repo := st.SummaryRepo()
	svc := NewService(llm.NewMockProvider(), repo, nil)
	ctx := context.Background()

	band, err := svc.DefaultBand(ctx, "ben")
	require.NoError(t, err)
	assert.Equal(t, cefr.B1, band)

	for _, row := range []store.SkillSummary{
		{Username: "ben", Skill: "reading", SessionID: "r", EndLevel: "C2", Finished: true},
		{Username: "ben", Skill: "listening", SessionID: "l", EndLevel: "B2", Finished: true},
		{Username: "ben", Skill: "vocabulary", SessionID: "v", EndLevel: "A1", Finished: false},
		{Username: "ben", Skill: Skill, EndLevel: "A1", Finished: true},
	} {
		require.NoError(t, repo.Upsert(ctx, row))
	}
	band, err = svc.DefaultBand(ctx, "ben")
	require.NoError(t, err)
	// mean of C2 and B2 rounds to C1
	assert.Equal(t, cefr.C1, band)
}
