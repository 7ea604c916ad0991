// Package api exposes ingestion, rendering and coordinate translation over
// HTTP, plus a websocket session for live readers.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/bookflow/internal/config"
	"github.com/dgallion1/bookflow/internal/highlights"
	"github.com/dgallion1/bookflow/internal/metrics"
	"github.com/dgallion1/bookflow/internal/pipeline"
)

// Server is the HTTP API server for bookflow.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	highlights   *highlights.Store
	metrics      *metrics.Metrics
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. store may be nil, which
// disables the highlight endpoints.
func NewServer(orch *pipeline.Orchestrator, store *highlights.Store, m *metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	if m == nil {
		m = metrics.New()
	}
	s := &Server{
		orchestrator: orch,
		highlights:   store,
		metrics:      m,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.BookflowAPIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/stats", s.handleStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Route("/api/documents/{docID}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteDocument)
			r.Get("/toc", s.handleTOC)
			r.Post("/render", s.handleRender)
			r.Get("/locate", s.handleLocate)
			r.Get("/resolve", s.handleResolve)
			r.Post("/selection", s.handleSelection)
			r.Get("/highlights", s.handleListHighlights)
			r.Post("/highlights", s.handleAddHighlight)
			r.Delete("/highlights/{highlightID}", s.handleDeleteHighlight)
			r.Get("/session", s.handleSession)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
