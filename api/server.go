// Package api exposes the lead-capture conversation over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	orchestratorx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/agents/orchestrator"
	analyticsx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/analytics"
	leadx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/lead"
	leadstorex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/leadstore"
)

type Config struct {
	Addr           string        `default:":8080"`
	AllowedOrigins []string      `split_words:"true" default:"http://localhost:*,http://127.0.0.1:*"`
	RequestTimeout time.Duration `split_words:"true" default:"30s"`
}

// Sessions is the conversation boundary served by the API.
type Sessions interface {
	Start(ctx context.Context) (orchestratorx.TurnResult, error)
	HandleMessage(ctx context.Context, sessionID string, text string) (orchestratorx.TurnResult, error)
	Lead(ctx context.Context, sessionID string) (leadx.Data, error)
	Close(ctx context.Context, sessionID string) error
}

type Reports interface {
	Report(ctx context.Context) (analyticsx.Report, error)
}

type LeadLister interface {
	ListLeads(ctx context.Context, limit, offset int) ([]leadstorex.Row, error)
}

type Option func(*Server)

func WithReports(r Reports) Option {
	return func(s *Server) { s.reports = r }
}

func WithLeadLister(l LeadLister) Option {
	return func(s *Server) { s.leads = l }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

type Server struct {
	cfg      Config
	sessions Sessions
	reports  Reports
	leads    LeadLister
	logger   zerolog.Logger

	router     chi.Router
	httpServer *http.Server
}

func New(cfg Config, sessions Sessions, opts ...Option) (*Server, error) {
	if sessions == nil {
		return nil, errors.New("session service is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	s := &Server{cfg: cfg, sessions: sessions, logger: log.Logger}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", d).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleStart)
		r.Post("/{id}/messages", s.handleMessage)
		r.Get("/{id}/lead", s.handleLead)
		r.Delete("/{id}", s.handleClose)
	})

	if s.reports != nil {
		r.Get("/analytics/funnel", s.handleFunnel)
	}
	if s.leads != nil {
		r.Get("/leads", s.handleListLeads)
	}
	return r
}

// requestIDLogger tags the request logger with chi's request id.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info().Str("addr", s.cfg.Addr).Msg("lead capture api listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
