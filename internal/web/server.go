// Package web exposes the engine and the solve browser over a JSON API.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/clayarnold/crosstrainer/internal/corpus"
	"github.com/clayarnold/crosstrainer/internal/domain"
	"github.com/clayarnold/crosstrainer/internal/srs"
	"github.com/clayarnold/crosstrainer/internal/storage"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	db       *storage.DB
	engine   *srs.Engine
	router   *http.ServeMux
	reposDir string
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, engine *srs.Engine, reposDir string) *Server {
	s := &Server{
		db:       db,
		engine:   engine,
		router:   http.NewServeMux(),
		reposDir: reposDir,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /api/health", s.handleHealth)

	s.router.HandleFunc("GET /api/srs/due", s.handleGetDue)
	s.router.HandleFunc("POST /api/srs/review", s.handlePostReview)
	s.router.HandleFunc("POST /api/srs/add", s.handleAddItem)
	s.router.HandleFunc("GET /api/srs/items", s.handleListItems)
	s.router.HandleFunc("PATCH /api/srs/item/{id}", s.handlePatchItem)
	s.router.HandleFunc("DELETE /api/srs/item/{id}", s.handleDeleteItem)
	s.router.HandleFunc("GET /api/srs/item/{id}/history", s.handleItemHistory)
	s.router.HandleFunc("DELETE /api/srs/solve/{solveID}/depth/{depth}", s.handleDeleteByDepth)
	s.router.HandleFunc("GET /api/srs/stats", s.handleStats)

	s.router.HandleFunc("GET /api/solves", s.handleListSolves)
	s.router.HandleFunc("GET /api/solves/{id}", s.handleGetSolve)

	s.router.HandleFunc("GET /api/scrambles/random", s.handleRandomScrambles)
	s.router.HandleFunc("GET /api/scrambles/count", s.handleScrambleCounts)

	s.router.HandleFunc("POST /api/sync", s.handlePostSync)

	s.router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handlePostSync reconciles all corpus sources in the foreground and returns
// the run report.
func (s *Server) handlePostSync(w http.ResponseWriter, r *http.Request) {
	report, err := corpus.Sync(r.Context(), s.db, s.reposDir)
	if err != nil {
		serveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError emits the error envelope the frontend expects:
// {"error": {"message": ..., "code": ...}}.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"message": message, "code": code},
	})
}

// serveError maps an engine error onto a status and stable code. Validation
// failures keep their message; anything else is a generic storage failure the
// caller may retry.
func serveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrDuplicate):
		writeError(w, http.StatusConflict, "DUPLICATE", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed JSON body")
		return false
	}
	return true
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

func queryPathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(r.PathValue(name))
}

// queryInt parses an optional integer query parameter. The bool reports
// whether the parameter was present; a present but malformed value comes back
// as present with ok=false via the error.
func queryInt(r *http.Request, name string) (int, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, err
	}
	return v, true, nil
}
