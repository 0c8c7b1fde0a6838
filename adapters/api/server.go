// Package api serves the one-shot validation HTTP surface. Uploads are
// buffered to temp files, validated, and discarded; nothing is persisted
// between requests.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"

	"datacheck/domain/validation"
	"datacheck/internal"
	"datacheck/internal/errors"
)

// maxUploadBytes caps one multipart request
const maxUploadBytes = 50 << 20

// Server routes validation requests onto the app layer
type Server struct {
	router *chi.Mux
	cfg    validation.Config
	db     *sqlx.DB // nil when no DATABASE_URL was configured
	logger *internal.Logger
}

// NewServer wires routes and middleware. db may be nil; query-backed
// validation then responds 503.
func NewServer(cfg validation.Config, db *sqlx.DB, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		db:     db,
		logger: logger.Named("api"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Router returns the mounted handler for the HTTP server
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/validate", s.handleValidate)
		r.Post("/validate-query", s.handleValidateQuery)
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encoding failed: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	} else {
		s.logger.Warn("request rejected: %v", err)
	}
	s.respondJSON(w, status, map[string]interface{}{
		"error": err.Error(),
		"code":  errors.CodeOf(err),
	})
}

// statusOf maps error codes onto HTTP statuses: caller mistakes are 400,
// everything else 500.
func statusOf(err error) int {
	switch errors.CodeOf(err) {
	case errors.CodeConfigInvalid,
		errors.CodeSchemaViolation,
		errors.CodeSchemaMismatch,
		errors.CodeIngestFailed,
		errors.CodeQueryFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseLabels splits a comma separated label list, trimming blanks
func parseLabels(v string) []string {
	if v == "" {
		return nil
	}
	var labels []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}

// runConfig copies the base engine config, applying per-request labels
func (s *Server) runConfig(labels []string) validation.Config {
	cfg := s.cfg
	if len(labels) > 0 {
		cfg.LabelColumns = labels
	}
	return cfg
}

func badRequest(format string, args ...interface{}) error {
	return errors.ConfigInvalid(fmt.Sprintf(format, args...))
}
