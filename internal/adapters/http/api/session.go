package api

import (
	"net/http"
)

// SessionHandler serves the session snapshot with its violation
// timeline and integrity score.
type SessionHandler struct {
	deps Dependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps Dependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleSession handles GET /session requests.
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Session(r.Context()))
}
