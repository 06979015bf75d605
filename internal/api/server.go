// Package api exposes the placement engine over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cefrkit/placement/internal/auth"
	"github.com/cefrkit/placement/internal/config"
	"github.com/cefrkit/placement/internal/engine"
	"github.com/cefrkit/placement/internal/logging"
	"github.com/cefrkit/placement/internal/store"
	"github.com/cefrkit/placement/internal/writing"
)

// Deps are the collaborators the HTTP layer drives.
type Deps struct {
	Engine    *engine.Engine
	Auth      *auth.Service
	Writing   *writing.Service
	Summaries store.SummaryRepo
	Logger    *logging.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg       config.ServerConfig
	engine    *engine.Engine
	auth      *auth.Service
	writing   *writing.Service
	summaries store.SummaryRepo
	log       *logging.Logger
	router    *chi.Mux
}

// NewServer builds the router.
func NewServer(cfg config.ServerConfig, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	s := &Server{
		cfg:       cfg,
		engine:    d.Engine,
		auth:      d.Auth,
		writing:   d.Writing,
		summaries: d.Summaries,
		log:       d.Logger.With("component", "api"),
	}
	s.setupRouter()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/levels", s.handleLevels)
	r.Post("/auth/token", s.handleToken)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Authenticate)

		r.Get("/me/summaries", s.handleMySummaries)

		r.Route("/writing", func(r chi.Router) {
			r.Post("/prompt", s.handleWritingPrompt)
			r.Post("/score", s.handleWritingScore)
			r.Get("/default-band", s.handleWritingDefaultBand)
		})

		r.Route("/{skill}/sessions", func(r chi.Router) {
			r.Post("/", s.handleStartSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Post("/answers", s.handleSubmitAnswers)
				r.Get("/summary", s.handleSessionSummary)
			})
		})
	})

	s.router = r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
