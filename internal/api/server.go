// Package api exposes the portfolio, contact and content services over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ganot/verdant/internal/domain/contact"
	"github.com/ganot/verdant/internal/domain/content"
	"github.com/ganot/verdant/internal/domain/project"
	"github.com/ganot/verdant/internal/kv"
)

const (
	defaultPageSize = 9
	maxPageSize     = 50
)

// Config wires the router.
type Config struct {
	Store     kv.Store
	Projects  *project.Service
	Contacts  *contact.Service
	Content   *content.Service
	TokenHash string
	// MCP, when set, is mounted at /mcp behind the admin token.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server holds the handlers' dependencies.
type Server struct {
	store    kv.Store
	projects *project.Service
	contacts *contact.Service
	content  *content.Service
	logger   *slog.Logger
}

// NewRouter creates the HTTP router with middleware.
func NewRouter(cfg Config) *mux.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:    cfg.Store,
		projects: cfg.Projects,
		contacts: cfg.Contacts,
		content:  cfg.Content,
		logger:   logger,
	}

	r := mux.NewRouter()
	r.Use(LoggingMiddleware(logger))
	r.Use(RecoveryMiddleware(logger))

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	pub := r.PathPrefix("/api").Subrouter()
	pub.HandleFunc("/projects", s.handleListProjects).Methods(http.MethodGet)
	pub.HandleFunc("/projects/{slug}", s.handleGetProjectBySlug).Methods(http.MethodGet)
	pub.HandleFunc("/content/{section}", s.handleGetContent).Methods(http.MethodGet)
	pub.HandleFunc("/contact", s.handleSubmitContact).Methods(http.MethodPost)

	auth := AuthMiddleware(cfg.TokenHash, logger)
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(auth)
	admin.HandleFunc("/projects", s.handleListProjects).Methods(http.MethodGet)
	admin.HandleFunc("/projects", s.handleCreateProject).Methods(http.MethodPost)
	admin.HandleFunc("/projects/order", s.handleReorderProjects).Methods(http.MethodPut)
	admin.HandleFunc("/projects/{id}", s.handleGetProject).Methods(http.MethodGet)
	admin.HandleFunc("/projects/{id}", s.handleUpdateProject).Methods(http.MethodPut)
	admin.HandleFunc("/projects/{id}", s.handleDeleteProject).Methods(http.MethodDelete)
	admin.HandleFunc("/contacts", s.handleListContacts).Methods(http.MethodGet)
	admin.HandleFunc("/contacts/{id}", s.handleGetContact).Methods(http.MethodGet)
	admin.HandleFunc("/contacts/{id}", s.handleDeleteContact).Methods(http.MethodDelete)
	admin.HandleFunc("/contacts/{id}/status", s.handleSetContactStatus).Methods(http.MethodPut)
	admin.HandleFunc("/content/{section}", s.handlePutContent).Methods(http.MethodPut)
	admin.HandleFunc("/content/{section}", s.handleResetContent).Methods(http.MethodDelete)

	if cfg.MCP != nil {
		mcpHandler := auth(cfg.MCP)
		r.Handle("/mcp", mcpHandler)
		r.PathPrefix("/mcp/").Handler(mcpHandler)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
