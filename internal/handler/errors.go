package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/tablereserve/internal/domain"
)

// errorResponse is the JSON body every failed request carries.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps domain errors to HTTP status codes: validation is a bad
// request, missing aggregates are 404, conflicting state (overlap, illegal
// transition, stale version) is 409, and a party that cannot fit is 422.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		valErr     *domain.ValidationError
		stateErr   *domain.StateTransitionError
		capErr     *domain.CapacityError
		overlapErr *domain.OverlapError
	)

	status := http.StatusInternalServerError
	kind := "internal"
	message := "internal server error"

	switch {
	case errors.As(err, &valErr):
		status, kind, message = http.StatusBadRequest, "validation", valErr.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, kind, message = http.StatusNotFound, "not_found", "resource not found"
	case errors.As(err, &stateErr):
		status, kind, message = http.StatusConflict, "state_transition", stateErr.Error()
	case errors.As(err, &overlapErr):
		status, kind, message = http.StatusConflict, "overlap", overlapErr.Error()
	case errors.Is(err, domain.ErrVersionConflict):
		status, kind, message = http.StatusConflict, "version_conflict", "concurrent update, retry the request"
	case errors.As(err, &capErr):
		status, kind, message = http.StatusUnprocessableEntity, "capacity", capErr.Error()
	default:
		if logger != nil {
			logger.Error("request failed", slog.String("error", err.Error()))
		}
	}

	writeJSON(w, status, errorResponse{Error: message, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
