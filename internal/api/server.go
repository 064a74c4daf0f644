package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/pdfread/internal/auth"
	"github.com/dgallion1/pdfread/internal/config"
	"github.com/dgallion1/pdfread/internal/editor"
	"github.com/dgallion1/pdfread/internal/idgen"
	"github.com/dgallion1/pdfread/internal/pipeline"
	"github.com/dgallion1/pdfread/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the HTTP server is built from.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Store        *store.Store
	Editor       *editor.Editor
	Verifier     auth.Verifier

	NewDocID        idgen.Generator
	NewJobID        idgen.Generator
	NewAnnotationID idgen.Generator

	Log    *slog.Logger
	Config config.Config
}

// Server is the HTTP API server for pdfread.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        *store.Store
	editor       *editor.Editor
	verifier     auth.Verifier

	newDocID        idgen.Generator
	newJobID        idgen.Generator
	newAnnotationID idgen.Generator

	log *slog.Logger
	cfg config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(d Deps) *Server {
	s := &Server{
		orchestrator:    d.Orchestrator,
		store:           d.Store,
		editor:          d.Editor,
		verifier:        d.Verifier,
		newDocID:        d.NewDocID,
		newJobID:        d.NewJobID,
		newAnnotationID: d.NewAnnotationID,
		log:             d.Log,
		cfg:             d.Config,
	}
	if s.log == nil {
		s.log = slog.Default()
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
		r.Use(auth.Middleware(s.verifier))

		r.Post("/api/upload", s.handleUpload)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/stats/ingest", s.handleIngestStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Route("/api/documents/{docID}", func(r chi.Router) {
			r.Get("/", s.handleGetDocument)
			r.Patch("/", s.handleUpdateDocument)
			r.Delete("/", s.handleDeleteDocument)
			r.Get("/file", s.handleDocumentFile)
			r.Get("/outline", s.handleOutline)
			r.Get("/blocks", s.handleListBlocks)
			r.Get("/pages/{page}/blocks", s.handlePageBlocks)
			r.Post("/blocks/{blockID}/split", s.handleSplitBlock)
			r.Get("/annotations", s.handleListAnnotations)
		})
		r.Get("/api/images/{blockID}", s.handleBlockImage)

		r.Post("/api/annotations", s.handleCreateAnnotation)
		r.Put("/api/annotations/{annotationID}", s.handleUpdateAnnotation)
		r.Delete("/api/annotations/{annotationID}", s.handleDeleteAnnotation)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			s.log.Error("health check failed", "error", err)
			jsonError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
