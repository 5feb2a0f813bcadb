package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hashlabs/taskpoints/internal/auth"
	"github.com/hashlabs/taskpoints/internal/engine"
)

type TaskHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewTaskHandler(e *engine.Engine, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{engine: e, logger: logger}
}

// List returns the active tasks visible to the caller: everything they have
// not completed yet, with their own submissions flagged.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	tasks, err := h.engine.ListFor(ac.PrincipalID)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Platform string `json:"platform"`
		Action   string `json:"action"`
		Link     string `json:"link"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	t, err := h.engine.Submit(ac.PrincipalID, req.Platform, req.Action, req.Link)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	h.logger.Info("task submitted", "task_id", t.ID, "user_id", ac.PrincipalID, "platform", t.Platform)
	writeJSON(w, http.StatusCreated, t)
}

// Complete credits the caller for performing the task. The response carries
// the authoritative balance so the client can reconcile its optimistic view.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	taskID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task ID")
		return
	}

	result, err := h.engine.Complete(r.Context(), taskID, ac.PrincipalID)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
