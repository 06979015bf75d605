package api

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cefrkit/placement/internal/auth"
	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/engine"
	"github.com/cefrkit/placement/internal/itemgen"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

type levelView struct {
	Level   cefr.Level `json:"level"`
	ExamTag string     `json:"exam_tag"`
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	levels := cefr.Levels()
	out := make([]levelView, len(levels))
	for i, l := range levels {
		out[i] = levelView{Level: l, ExamTag: l.ExamTag()}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"levels": out,
		"skills": s.engine.Skills(),
	})
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleToken accepts an OAuth2 password form or a JSON body.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			s.respondError(w, r, &badRequest{msg: "invalid form body"})
			return
		}
		req.Username, req.Password = r.PostForm.Get("username"), r.PostForm.Get("password")
	} else if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	tok, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"access_token": tok,
		"token_type":   "bearer",
		"expires_in":   int(s.auth.TTL().Seconds()),
	})
}

func currentUser(r *http.Request) string {
	u, _ := auth.UserFrom(r.Context())
	return u
}

func skillParam(r *http.Request) (itemgen.Skill, error) {
	sk, err := itemgen.ParseSkill(chi.URLParam(r, "skill"))
	if err != nil {
		return "", fmt.Errorf("%w: %s", engine.ErrUnknownSkill, chi.URLParam(r, "skill"))
	}
	return sk, nil
}

type startRequest struct {
	StartLevel string `json:"start_level"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	skill, err := skillParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req startRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	turn, err := s.engine.Start(r.Context(), currentUser(r), skill, req.StartLevel)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newTurnView(turn))
}

// loadSession returns the caller's session, requiring it to belong to the
// skill in the path.
func (s *Server) loadSession(r *http.Request) (*engine.Session, error) {
	skill, err := skillParam(r)
	if err != nil {
		return nil, err
	}
	sess, err := s.engine.Get(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if sess.Skill != skill {
		return nil, engine.ErrSessionNotFound
	}
	return sess, nil
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newSessionView(sess))
}

type answerRequest struct {
	ItemID      string `json:"item_id"`
	Choice      *int   `json:"choice"`
	Transcript  string `json:"transcript"`
	AudioBase64 string `json:"audio_base64"`

	// Answers submits several items of one batch at once.
	Answers []answerRequest `json:"answers"`
}

func (a answerRequest) toAnswer() (engine.Answer, error) {
	if a.ItemID == "" {
		return engine.Answer{}, &badRequest{msg: "item_id is required"}
	}
	ans := engine.Answer{ItemID: a.ItemID, Choice: -1, Transcript: a.Transcript}
	if a.Choice != nil {
		ans.Choice = *a.Choice
	}
	if a.AudioBase64 != "" {
		audio, err := base64.StdEncoding.DecodeString(a.AudioBase64)
		if err != nil {
			return engine.Answer{}, &badRequest{msg: "audio_base64 is not valid base64"}
		}
		ans.Audio = audio
	}
	return ans, nil
}

func (s *Server) handleSubmitAnswers(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	reqs := req.Answers
	if len(reqs) == 0 {
		reqs = []answerRequest{req}
	}
	answers := make([]engine.Answer, 0, len(reqs))
	for _, a := range reqs {
		ans, err := a.toAnswer()
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		answers = append(answers, ans)
	}

	turn, err := s.engine.Submit(r.Context(), currentUser(r), sess.ID, answers...)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newTurnView(turn))
}

func (s *Server) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sum, err := s.engine.Summary(r.Context(), currentUser(r), sess.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func (s *Server) handleMySummaries(w http.ResponseWriter, r *http.Request) {
	rows, err := s.summaries.ListByUser(r.Context(), currentUser(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newSummaryRowViews(rows))
}

func (s *Server) handleWritingPrompt(w http.ResponseWriter, r *http.Request) {
	p, err := s.writing.Prompt(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"prompt": p})
}

type scoreRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleWritingScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	rubric, err := s.writing.Score(r.Context(), req.Text)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.writing.Save(r.Context(), currentUser(r), rubric); err != nil {
		s.log.Warn("writing result not saved", "user", currentUser(r), "error", err)
	}
	respondJSON(w, http.StatusOK, rubric)
}

func (s *Server) handleWritingDefaultBand(w http.ResponseWriter, r *http.Request) {
	band, err := s.writing.DefaultBand(r.Context(), currentUser(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]cefr.Level{"band": band})
}
