package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/reportgen/internal/config"
	"github.com/dgallion1/reportgen/internal/genai"
	"github.com/dgallion1/reportgen/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for reportgen.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	writer       *genai.OpenAIWriter
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, writer *genai.OpenAIWriter, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		writer:       writer,
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

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.ReportgenAPIKey, s.log))

		r.Post("/api/reports", s.handleCreateReport)
		r.Get("/api/reports/{jobID}/status", s.handleReportStatus)
		r.Get("/api/reports/{jobID}/download", s.handleReportDownload)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
