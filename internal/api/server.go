// Package api implements the HTTP layer for the crash claim labeller and the
// road risk expert. Handlers are methods on *Server. Each handler file is
// responsible for one resource group and only imports the dependencies it
// actually uses.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fd-guo/ChatGeoPT/internal/assistant"
	"github.com/fd-guo/ChatGeoPT/internal/overpass"
	"github.com/fd-guo/ChatGeoPT/internal/render"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string

	// RequestTimeout bounds every request, including the chat model call.
	// Zero means 2 minutes.
	RequestTimeout time.Duration
}

// Asker runs one assistant request. *assistant.Service satisfies it.
type Asker interface {
	Ask(ctx context.Context, mode assistant.Mode, text string) (*assistant.Answer, error)
}

// ReadinessChecker reports whether the service can answer every kind of
// question, and which reference datasets it is running without.
// *assistant.Service satisfies it.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
	MissingData() []string
}

// WaySummaryReader returns the latest way summary. *store.Store satisfies it.
type WaySummaryReader interface {
	ReadWaySummary() ([]overpass.WaySegment, error)
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// assistant answers both views.
	assistant Asker

	// pages renders the HTML views.
	pages *render.Pages

	// summary serves the way summary artifact for download.
	summary WaySummaryReader

	ready ReadinessChecker

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(
	asker Asker,
	pages *render.Pages,
	summary WaySummaryReader,
	ready ReadinessChecker,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	s := &Server{
		assistant: asker,
		pages:     pages,
		summary:   summary,
		ready:     ready,
		cfg:       cfg,
		logger:    logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// ── HTML views ────────────────────────────────────────────────────────────
	r.Get("/", s.handleIndex)
	for _, v := range views {
		r.Get(v.info.Path, s.handleView(v))
		r.Post(v.info.Path, s.handleViewSubmit(v))
	}

	// ── API v1 ────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {
		r.Post("/claims/label", s.handleAsk(assistant.ModeClaim))
		r.Post("/roads/ask", s.handleAsk(assistant.ModeRoad))
		r.Get("/roads/way-summary", s.handleGetWaySummary)
		r.Post("/ask/{mode}", s.handleAskByMode)
	})

	return r
}

// ─── HEALTH ───────────────────────────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type readyResponse struct {
	Status  string   `json:"status"`
	Error   string   `json:"error,omitempty"`
	Missing []string `json:"missing"`
}

// handleReadyz returns 503 until the risk dataset is loaded. The claim and
// coordinate flows work without it, so the process stays alive either way.
// Missing lists every dataset that was not loaded, even when ready.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	body := readyResponse{Status: "ready", Missing: []string{}}
	if s.ready == nil {
		respond(w, http.StatusOK, body)
		return
	}
	if missing := s.ready.MissingData(); len(missing) > 0 {
		body.Missing = missing
	}
	if err := s.ready.CheckReadiness(r.Context()); err != nil {
		body.Status = "not ready"
		body.Error = err.Error()
		respond(w, http.StatusServiceUnavailable, body)
		return
	}
	respond(w, http.StatusOK, body)
}
