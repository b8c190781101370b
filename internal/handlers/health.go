package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/blazethunderstorm/screen-recorder/internal/logging"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	// Check probes the record store. A nil Check reports healthy.
	Check func(ctx context.Context) error
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	status := http.StatusOK
	payload := map[string]string{
		"status": "ok",
	}

	if h.Check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Check(ctx); err != nil {
			logging.FromContext(r.Context()).Error("health check failed", "error", err)
			status = http.StatusServiceUnavailable
			payload["status"] = "unavailable"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
