package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefrkit/placement/internal/auth"
	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/config"
	"github.com/cefrkit/placement/internal/difficulty"
	"github.com/cefrkit/placement/internal/engine"
	"github.com/cefrkit/placement/internal/itemgen"
	"github.com/cefrkit/placement/internal/llm"
	"github.com/cefrkit/placement/internal/store"
	"github.com/cefrkit/placement/internal/writing"
)

type stubFactory struct {
	skill itemgen.Skill
	fail  bool
	n     atomic.Int64
}

func (f *stubFactory) Skill() itemgen.Skill { return f.skill }

func (f *stubFactory) GenerateBatch(_ context.Context, level cefr.Level, count int) ([]itemgen.Item, error) {
	if f.fail {
		return nil, &itemgen.GenerationExhaustedError{Skill: f.skill, Attempts: 2}
	}
	items := make([]itemgen.Item, count)
	for i := range items {
		items[i] = itemgen.Item{
			ID:           fmt.Sprintf("%s-%d", f.skill, f.n.Add(1)),
			Skill:        f.skill,
			Level:        level,
			ExamTag:      level.ExamTag(),
			Stimulus:     "She ___ to work every day.",
			Options:      []string{"goes", "go", "going", "gone"},
			CorrectIndex: 0,
			Rationale:    "third person singular",
		}
	}
	return items, nil
}

type testEnv struct {
	srv   *httptest.Server
	store *store.Store
	auth  *auth.Service
	llm   *llm.MockProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	eng, err := engine.New(engine.Options{
		Skills: map[itemgen.Skill]engine.SkillConfig{
			itemgen.SkillVocabulary: {
				DefaultStart: cefr.B1,
				Total:        2,
				BatchSize:    1,
				Rule:         difficulty.Streak{Threshold: 2},
				Factory:      &stubFactory{skill: itemgen.SkillVocabulary},
			},
			itemgen.SkillListening: {
				DefaultStart: cefr.A2,
				Total:        2,
				BatchSize:    2,
				Rule:         difficulty.Pairwise{},
				Factory:      &stubFactory{skill: itemgen.SkillListening, fail: true},
			},
		},
		Sink: engine.StoreSink{Summaries: st.SummaryRepo()},
	})
	require.NoError(t, err)

	authSvc, err := auth.NewService(st.UserRepo(), "test-secret", time.Hour)
	require.NoError(t, err)
	require.NoError(t, authSvc.Seed(context.Background(), "ana", "pw"))

	mock := llm.NewMockProvider()
	s := NewServer(config.ServerConfig{RequestTimeout: 10 * time.Second}, Deps{
		Engine:    eng,
		Auth:      authSvc,
		Writing:   writing.NewService(mock, st.SummaryRepo(), nil),
		Summaries: st.SummaryRepo(),
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: st, auth: authSvc, llm: mock}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (e *testEnv) token(t *testing.T, user string) string {
	t.Helper()
	tok, err := e.auth.Issue(user)
	require.NoError(t, err)
	return tok
}

func TestHealthAndLevels(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, body := env.do(t, http.MethodGet, "/levels", "", nil)
	require.Equal(t, http.StatusOK, code)
	var levels struct {
		Levels []levelView     `json:"levels"`
		Skills []itemgen.Skill `json:"skills"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &levels))
	require.Len(t, levels.Levels, 6)
	assert.Equal(t, "PET", levels.Levels[2].ExamTag)
	assert.Equal(t, []itemgen.Skill{itemgen.SkillListening, itemgen.SkillVocabulary}, levels.Skills)
}

func TestTokenEndpoint(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/auth/token", "", map[string]string{"username": "ana", "password": "pw"})
	require.Equal(t, http.StatusOK, code)
	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &tok))
	assert.Equal(t, "bearer", tok.TokenType)
	user, err := env.auth.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ana", user)

	resp, err := http.PostForm(env.srv.URL+"/auth/token", url.Values{"username": {"ana"}, "password": {"pw"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	code, body = env.do(t, http.MethodPost, "/auth/token", "", map[string]string{"username": "ana", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", body.Error.Code)
}

func TestSessionsRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(t, http.MethodPost, "/vocabulary/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", body.Error.Code)
}

func TestVocabularySessionFlow(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "ana")

	code, body := env.do(t, http.MethodPost, "/vocabulary/sessions", tok, map[string]string{"start_level": "C2"})
	require.Equal(t, http.StatusCreated, code)
	assert.NotContains(t, string(body.Data), "correct_index")
	assert.NotContains(t, string(body.Data), "third person singular")

	var turn turnView
	require.NoError(t, json.Unmarshal(body.Data, &turn))
	// vocabulary has no forced start here, so the requested level holds
	assert.Equal(t, cefr.C2, turn.Level)
	require.Len(t, turn.Items, 1)
	base := "/vocabulary/sessions/" + turn.SessionID

	code, body = env.do(t, http.MethodPost, base+"/answers", tok, map[string]any{"item_id": "nope", "choice": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "unknown_item", body.Error.Code)

	code, body = env.do(t, http.MethodPost, base+"/answers", tok, map[string]any{"item_id": turn.Items[0].ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_choice", body.Error.Code)

	code, body = env.do(t, http.MethodPost, base+"/answers", tok, map[string]any{"item_id": turn.Items[0].ID, "choice": 0})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body.Data, &turn))
	require.Len(t, turn.Results, 1)
	assert.True(t, turn.Results[0].Correct)
	assert.False(t, turn.Finished)

	code, body = env.do(t, http.MethodGet, base, tok, nil)
	require.Equal(t, http.StatusOK, code)
	var sess sessionView
	require.NoError(t, json.Unmarshal(body.Data, &sess))
	assert.Equal(t, 1, sess.Asked)
	require.Len(t, sess.Items, 1)

	code, body = env.do(t, http.MethodPost, base+"/answers", tok, map[string]any{"item_id": sess.Items[0].ID, "choice": 1})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body.Data, &turn))
	assert.True(t, turn.Finished)
	require.NotNil(t, turn.Summary)
	assert.Equal(t, 1, turn.Summary.Correct)

	code, body = env.do(t, http.MethodPost, base+"/answers", tok, map[string]any{"item_id": sess.Items[0].ID, "choice": 1})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "session_ended", body.Error.Code)

	code, body = env.do(t, http.MethodGet, base+"/summary", tok, nil)
	require.Equal(t, http.StatusOK, code)
	var sum engine.Summary
	require.NoError(t, json.Unmarshal(body.Data, &sum))
	assert.Equal(t, 2, sum.Answered)

	code, body = env.do(t, http.MethodGet, "/me/summaries", tok, nil)
	require.Equal(t, http.StatusOK, code)
	var rows []summaryRowView
	require.NoError(t, json.Unmarshal(body.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "vocabulary", rows[0].Skill)
	assert.True(t, rows[0].Finished)
}

func TestSessionIsolation(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(t, http.MethodPost, "/vocabulary/sessions", env.token(t, "ana"), nil)
	require.Equal(t, http.StatusCreated, code)
	var turn turnView
	require.NoError(t, json.Unmarshal(body.Data, &turn))

	code, _ = env.do(t, http.MethodGet, "/vocabulary/sessions/"+turn.SessionID, env.token(t, "bob"), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodGet, "/listening/sessions/"+turn.SessionID, env.token(t, "ana"), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStartErrors(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "ana")

	tests := []struct {
		path   string
		body   any
		status int
		code   string
	}{
		{"/chess/sessions", nil, http.StatusNotFound, "unknown_skill"},
		{"/vocabulary/sessions", map[string]string{"start_level": "D4"}, http.StatusBadRequest, "invalid_level"},
		{"/listening/sessions", nil, http.StatusBadGateway, "generation_failed"},
	}
	for _, tt := range tests {
		code, body := env.do(t, http.MethodPost, tt.path, tok, tt.body)
		assert.Equal(t, tt.status, code, tt.path)
		require.NotNil(t, body.Error, tt.path)
		assert.Equal(t, tt.code, body.Error.Code, tt.path)
	}
}

func TestWritingEndpoints(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "ana")

	env.llm.AddText(`{"prompt": "Describe a city you love."}`)
	code, body := env.do(t, http.MethodPost, "/writing/prompt", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body.Data), "Describe a city you love.")

	code, body = env.do(t, http.MethodPost, "/writing/score", tok, map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, code)

	env.llm.AddText(`{"band": "B2", "scores": {"accuracy": 4}, "overall": 4, "word_count": 3}`)
	code, body = env.do(t, http.MethodPost, "/writing/score", tok, map[string]string{"text": "My city is lovely."})
	require.Equal(t, http.StatusOK, code)
	var rubric writing.Rubric
	require.NoError(t, json.Unmarshal(body.Data, &rubric))
	assert.Equal(t, cefr.B2, rubric.Band)

	row, err := env.store.SummaryRepo().Get(context.Background(), "ana", writing.Skill)
	require.NoError(t, err)
	assert.Equal(t, "B2", row.EndLevel)

	code, body = env.do(t, http.MethodGet, "/writing/default-band", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, strings.Contains(string(body.Data), `"B1"`))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{engine.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", engine.ErrSessionBusy), http.StatusConflict},
		{&engine.InvalidChoiceError{ItemID: "x", Choice: 9, Options: 4}, http.StatusBadRequest},
		{&llm.ErrProviderUnavailable{}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := classify(tt.err)
		assert.Equal(t, tt.status, status, "%v", tt.err)
	}
}
