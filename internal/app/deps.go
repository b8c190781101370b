package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/blazethunderstorm/screen-recorder/internal/auth"
	"github.com/blazethunderstorm/screen-recorder/internal/config"
	"github.com/blazethunderstorm/screen-recorder/internal/db"
	"github.com/blazethunderstorm/screen-recorder/internal/handlers"
	"github.com/blazethunderstorm/screen-recorder/internal/library"
	"github.com/blazethunderstorm/screen-recorder/internal/logging"
	"github.com/blazethunderstorm/screen-recorder/internal/middleware"
	"github.com/blazethunderstorm/screen-recorder/internal/repositories"
	"github.com/blazethunderstorm/screen-recorder/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, *auth.TokenService, error) {
	var media library.MediaHost
	if strings.TrimSpace(cfg.Media.Bucket) == "" {
		logging.FromContext(ctx).Warn("media bucket not configured, uploads disabled")
	} else {
		host, err := storage.NewS3MediaHost(ctx, cfg.Media)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure media host: %w", err)
		}
		media = host
	}

	videos := library.NewService(repositories.NewPostgresVideoRepository(pool), media)
	profiles := library.NewProfileService(repositories.NewPostgresUserRepository(pool))
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, 0)
	tokens := auth.NewTokenService(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL)

	return handlers.Dependencies{
		Library:        videos,
		Profiles:       profiles,
		Limiter:        limiter,
		UploadMaxBytes: cfg.UploadMaxBytes,
		HealthCheck:    pool.Ping,
	}, tokens, nil
}
