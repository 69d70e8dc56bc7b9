package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ternarybob/scicalc/internal/keymap"
	"github.com/ternarybob/scicalc/internal/logger"
	"github.com/ternarybob/scicalc/internal/session"
	"github.com/ternarybob/scicalc/pkg/calc"
)

// version is set via -ldflags at build time
var version = "dev"

// SetVersion sets the version string (called from main).
func SetVersion(v string) {
	version = v
}

// Version returns the version string.
func Version() string {
	return version
}

// Response types

// HealthResponse is the response for /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// VersionResponse is the response for /version.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionListResponse lists live sessions.
type SessionListResponse struct {
	Sessions []string `json:"sessions"`
	Total    int      `json:"total"`
}

// KeyRequest is the request body for a key press.
type KeyRequest struct {
	Key string `json:"key"`
}

// KeymapResponse lists the active key bindings.
type KeymapResponse struct {
	Bindings []keymap.Binding `json:"bindings"`
}

// Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{
		Version: version,
		Service: "scicalc-service",
	})
}

func (s *Server) handleKeymap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, KeymapResponse{Bindings: s.keymap.Bindings()})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.sessions.IDs()
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: ids, Total: len(ids)})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.sessions.Remove(id); err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var in calc.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snap, err := sess.Apply(in)
	if err != nil {
		s.writeApplyError(w, sess.ID(), err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req KeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Key == "" {
		writeError(w, http.StatusBadRequest, "Key is required")
		return
	}

	snap, err := sess.Press(s.keymap, req.Key)
	if err != nil {
		s.writeApplyError(w, sess.ID(), err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")

	sess, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return sess, true
}

// writeApplyError maps a failed transition to a status code. Domain errors
// never get here: they are part of the returned state.
func (s *Server) writeApplyError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, session.ErrUnboundKey), errors.Is(err, calc.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.GetLogger().Error().Err(err).Str("session", id).Msg("Transition failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
