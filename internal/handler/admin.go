package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/hashlabs/taskpoints/internal/engine"
	"github.com/hashlabs/taskpoints/internal/store"
)

type AdminHandler struct {
	engine     *engine.Engine
	principals *store.PrincipalStore
	adminEmail string
	adminPass  string
	logger     *slog.Logger
}

func NewAdminHandler(e *engine.Engine, ps *store.PrincipalStore, adminEmail, adminPass string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{engine: e, principals: ps, adminEmail: adminEmail, adminPass: adminPass, logger: logger}
}

// Init seeds the first admin account from configuration. It is a no-op with
// 409 once any admin exists, so leaving the route public is safe.
func (h *AdminHandler) Init(w http.ResponseWriter, r *http.Request) {
	if h.adminEmail == "" || h.adminPass == "" {
		writeError(w, http.StatusServiceUnavailable, "admin bootstrap is not configured")
		return
	}
	n, err := h.principals.CountAdmins()
	if err != nil {
		h.logger.Error("count admins", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to initialize admin")
		return
	}
	if n > 0 {
		writeError(w, http.StatusConflict, "admin already initialized")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(h.adminPass), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to initialize admin")
		return
	}
	admin, err := h.principals.CreateAdmin(h.adminEmail, string(hash))
	if err != nil {
		// Concurrent inits race past the count check; the unique index on
		// admins.email decides, and the loser gets the same 409.
		if store.IsUniqueViolation(err, "admins") {
			writeError(w, http.StatusConflict, "admin already initialized")
			return
		}
		h.logger.Error("create admin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to initialize admin")
		return
	}

	h.logger.Info("admin initialized", "admin_id", admin.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"status": "admin initialized"})
}

func (h *AdminHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.engine.ListAll()
	if err != nil {
		h.logger.Error("list all tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *AdminHandler) DeactivateTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task ID")
		return
	}
	if err := h.engine.Deactivate(taskID); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats()
	if err != nil {
		h.logger.Error("load stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	users, total, err := h.engine.ListUsers(page, perPage)
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"total": total,
	})
}

func (h *AdminHandler) UserCompletions(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	completions, err := h.engine.UserCompletions(userID)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	earned, err := h.engine.EarnedPoints(userID)
	if err != nil {
		h.logger.Error("sum earned points", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load completions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"completions":   completions,
		"earned_points": earned,
	})
}

func (h *AdminHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	var req struct {
		Points int `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	p, err := h.engine.SetBalance(userID, req.Points)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	h.logger.Info("balance overwritten", "user_id", userID, "points", req.Points)
	writeJSON(w, http.StatusOK, p)
}
