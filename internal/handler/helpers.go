package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hashlabs/taskpoints/internal/engine"
)

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is an infrastructure fault and stays opaque.
func writeEngineError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidAction),
		errors.Is(err, engine.ErrInvalidLink),
		errors.Is(err, engine.ErrInvalidBalance):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrDuplicateLink),
		errors.Is(err, engine.ErrTaskInactive),
		errors.Is(err, engine.ErrSelfCompletion),
		errors.Is(err, engine.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrTaskNotFound),
		errors.Is(err, engine.ErrPrincipalNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("engine error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
