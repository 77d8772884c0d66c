package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/liftplan/internal/program"
	"github.com/claude/liftplan/internal/storage"
	"github.com/go-chi/chi/v5"
	"tailscale.com/client/local"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db      *storage.DB
	service *program.Service
	log     *slog.Logger
	apiKey  string
	lc      *local.Client
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, svc *program.Service, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:      db,
		service: svc,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale switches identity resolution to tailnet WhoIs lookups.
func (s *Server) SetTailscale(lc *local.Client) {
	s.lc = lc
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount attaches an extra handler subtree (the MCP transport).
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/api/v1/me", s.handleMe)

	s.router.Route("/api/v1/programs", func(r chi.Router) {
		r.Get("/", s.handleListPrograms)
		r.Post("/", s.handleCreateProgram)
		r.Get("/{id}", s.handleGetProgram)
		r.Patch("/{id}", s.handlePatchProgram)
		r.Post("/{id}/clone", s.handleCloneProgram)
		r.Post("/{id}/activate", s.handleActivateProgram)
	})

	s.router.Route("/api/v1/exercises", func(r chi.Router) {
		r.Get("/", s.handleListExercises)
		r.Post("/resolve", s.handleResolveExercise)
		r.Post("/{id}/aliases", s.handleAddAlias)
	})

	// Inline edits; these never create a new program version.
	s.router.Patch("/api/v1/days", s.handlePatchDay)
	s.router.Post("/api/v1/day-exercises", s.handleAddExercise)
	s.router.Patch("/api/v1/day-exercises", s.handlePatchExercise)
	s.router.Delete("/api/v1/day-exercises", s.handleRemoveExercise)

	// Bulk import (API key required)
	if s.apiKey != "" {
		s.router.Route("/api/v1/import", func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/", s.handleImportProgram)
		})
	}
}

// identity picks the configured identity middleware per request, so enabling
// Tailscale after construction does not require rebuilding the router.
func (s *Server) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.lc != nil {
			s.TailscaleIdentity(next).ServeHTTP(w, r)
			return
		}
		DevIdentity(next).ServeHTTP(w, r)
	})
}
