package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blazethunderstorm/screen-recorder/internal/auth"
	"github.com/blazethunderstorm/screen-recorder/internal/config"
	"github.com/blazethunderstorm/screen-recorder/internal/db"
	"github.com/blazethunderstorm/screen-recorder/internal/handlers"
	"github.com/blazethunderstorm/screen-recorder/internal/httpserver"
	"github.com/blazethunderstorm/screen-recorder/internal/library"
	"github.com/blazethunderstorm/screen-recorder/internal/logging"
	"github.com/blazethunderstorm/screen-recorder/internal/middleware"
	"github.com/blazethunderstorm/screen-recorder/internal/models"
	"github.com/blazethunderstorm/screen-recorder/internal/repositories"
)

// Serve runs the HTTP API until ctx is canceled or a termination signal arrives.
func Serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, tokens, err := buildDependencies(ctx, pool, cfg)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	handler := middleware.RequestLogger(logger)(auth.Middleware(tokens)(mux))

	srv := httpserver.New(cfg.AppPort, handler, httpserver.Options{
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting http server", "addr", srv.Addr(), "bucket", cfg.Media.Bucket)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("http server stopped")
	return nil
}

// IssueToken signs in the identity, creating the user on first sight, and
// writes a session token for it to out.
func IssueToken(ctx context.Context, out io.Writer, identity library.Identity) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	profiles := library.NewProfileService(repositories.NewPostgresUserRepository(pool))
	user, err := profiles.SignIn(ctx, identity)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenService(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL)
	token, expiresAt, err := tokens.Issue(models.Principal{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Image: user.Image,
	})
	if err != nil {
		return fmt.Errorf("issue session token: %w", err)
	}

	fmt.Fprintf(out, "user:    %s\nexpires: %s\ntoken:   %s\n", user.ID, expiresAt.Format(time.RFC3339), token)
	return nil
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     logging.ParseLevel(level),
	}))
}
