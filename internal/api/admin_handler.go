package api

import (
	"log/slog"
	"net/http"

	"github.com/fieldline/bgbridge/internal/api/shared"
	"github.com/fieldline/bgbridge/internal/coordinator"
)

// TaskDirectory is the view of the registry the admin surface needs.
type TaskDirectory interface {
	Identifiers() []string
	Sealed() bool
}

// GrantInspector is the view of the coordinator the admin surface needs.
type GrantInspector interface {
	Snapshot() []coordinator.GrantInfo
	Stats() coordinator.Stats
}

// AdminHandler serves the inspection endpoints.
type AdminHandler struct {
	tasks  TaskDirectory
	grants GrantInspector
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler with the given dependencies.
func NewAdminHandler(tasks TaskDirectory, grants GrantInspector, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		tasks:  tasks,
		grants: grants,
		logger: logger.With("component", "admin_handler"),
	}
}

// taskListResponse is the payload for GET /api/tasks.
type taskListResponse struct {
	Identifiers []string `json:"identifiers"`
	Sealed      bool     `json:"sealed"`
}

// grantListResponse is the payload for GET /api/grants.
type grantListResponse struct {
	Active []coordinator.GrantInfo `json:"active"`
	Stats  coordinator.Stats       `json:"stats"`
}

// ListTasks returns the registered task identifiers.
func (h *AdminHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, taskListResponse{
		Identifiers: h.tasks.Identifiers(),
		Sealed:      h.tasks.Sealed(),
	})
}

// ListGrants returns the active grants and cumulative lifecycle counters.
func (h *AdminHandler) ListGrants(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, grantListResponse{
		Active: h.grants.Snapshot(),
		Stats:  h.grants.Stats(),
	})
}
