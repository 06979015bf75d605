package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cefrkit/placement/internal/auth"
	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/engine"
	"github.com/cefrkit/placement/internal/itemgen"
	"github.com/cefrkit/placement/internal/llm"
	"github.com/cefrkit/placement/internal/store"
	"github.com/cefrkit/placement/internal/writing"
)

// maxBodyBytes bounds request bodies; speaking answers carry base64 audio.
const maxBodyBytes = 16 << 20

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// badRequest marks malformed input caught by the handlers themselves.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: status < 300, Data: data})
}

// respondError maps err onto a status and a stable error code.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Error: &apiError{Code: code, Message: err.Error()}})
}

func classify(err error) (int, string) {
	var (
		unknownItem *engine.UnknownItemError
		badChoice   *engine.InvalidChoiceError
		bad         *badRequest
		exhausted   *itemgen.GenerationExhaustedError
		unavailable *llm.ErrProviderUnavailable
		rateLimited *llm.ErrRateLimit
	)
	switch {
	case errors.Is(err, engine.ErrSessionNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, engine.ErrUnknownSkill):
		return http.StatusNotFound, "unknown_skill"
	case errors.Is(err, engine.ErrSessionAlreadyEnded):
		return http.StatusConflict, "session_ended"
	case errors.Is(err, engine.ErrSessionBusy):
		return http.StatusConflict, "session_busy"
	case errors.As(err, &unknownItem):
		return http.StatusBadRequest, "unknown_item"
	case errors.As(err, &badChoice):
		return http.StatusBadRequest, "invalid_choice"
	case errors.Is(err, cefr.ErrUnknownLevel):
		return http.StatusBadRequest, "invalid_level"
	case errors.Is(err, writing.ErrEmptyText), errors.As(err, &bad):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.As(err, &exhausted), errors.As(err, &unavailable), errors.As(err, &rateLimited):
		return http.StatusBadGateway, "generation_failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal"
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched;
// handlers check their own required fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &badRequest{msg: "invalid JSON body: " + err.Error()}
	}
	return nil
}
