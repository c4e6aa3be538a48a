// Package api declares HTTP contracts and route registration helpers.
//
// The surface is read-only: monitoring is driven in-process, so the
// routes only observe session state; nothing mutates through HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/17Abhi005/proctorai/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Session returns the current session snapshot.
	Session(ctx context.Context) types.SessionView

	// Status returns the live monitoring status.
	Status(ctx context.Context) types.StatusView
}

// Server wires HTTP routes for the monitoring API.
type Server struct {
	healthHandler  *HealthHandler
	statusHandler  *StatusHandler
	sessionHandler *SessionHandler
	statsHandler   *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statusHandler:  NewStatusHandler(deps),
		sessionHandler: NewSessionHandler(deps),
		statsHandler:   NewStatsHandler(statsProvider),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
	mux.HandleFunc("/session", MetricsMiddleware(s.sessionHandler.HandleSession, "session"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Code: code, Message: http.StatusText(status)})
}
