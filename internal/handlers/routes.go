package handlers

import (
	"context"
	"net/http"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Check: deps.HealthCheck}
	videos := VideoHandler{Library: deps.Library, Limiter: deps.Limiter, MaxUploadBytes: deps.UploadMaxBytes}
	users := UserHandler{Profiles: deps.Profiles, Limiter: deps.Limiter}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/videos", videos.Collection)
	mux.HandleFunc("/api/v1/videos/{id}", videos.Item)
	mux.HandleFunc("/api/v1/uploads", videos.Upload)
	mux.HandleFunc("/api/v1/users/{id}", users.Item)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Library        VideoLibrary
	Profiles       ProfileDirectory
	Limiter        RateLimiter
	UploadMaxBytes int64
	HealthCheck    func(ctx context.Context) error
}
