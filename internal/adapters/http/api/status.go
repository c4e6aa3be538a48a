package api

import (
	"net/http"
)

// StatusHandler serves the live monitoring status.
type StatusHandler struct {
	deps Dependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps Dependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// HandleStatus handles GET /status requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Status(r.Context()))
}
