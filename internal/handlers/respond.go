package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blazethunderstorm/screen-recorder/internal/library"
	"github.com/blazethunderstorm/screen-recorder/internal/logging"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondError maps library errors onto HTTP statuses. Client errors carry the
// error text; server errors are logged and replaced with a generic message.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, library.ErrUnauthorized):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, library.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, library.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, library.ErrInvalidInput):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, library.ErrUpstream):
		status, message = http.StatusBadGateway, "upstream service unavailable"
	}

	if status >= http.StatusInternalServerError {
		logging.FromContext(ctx).Error("operation failed", "error", err)
	}

	respondJSON(ctx, w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	w.WriteHeader(http.StatusMethodNotAllowed)
}
