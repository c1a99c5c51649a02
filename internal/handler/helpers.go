package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/n-zngr/recipes-app/internal/household"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// writeServiceError maps the membership service's error kinds to HTTP
// status codes. Unrecognized errors become a logged 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var status int
	switch {
	case errors.Is(err, household.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, household.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, household.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, household.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, household.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, household.ErrUnavailable):
		logger.Error("store unavailable", "error", err)
		status = http.StatusServiceUnavailable
	default:
		logger.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
