package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/blazethunderstorm/screen-recorder/internal/logging"
	"github.com/blazethunderstorm/screen-recorder/internal/models"
)

// SessionCookie is the cookie consulted when no Authorization header is sent.
const SessionCookie = "session"

type ctxKey string

const principalKey ctxKey = "principal"

// Resolver turns a raw session token into a principal.
type Resolver interface {
	Resolve(token string) (*models.Principal, error)
}

// WithPrincipal stores the principal on the context.
func WithPrincipal(ctx context.Context, principal *models.Principal) context.Context {
	if principal == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFromContext returns the caller or nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *models.Principal {
	if ctx == nil {
		return nil
	}
	if principal, ok := ctx.Value(principalKey).(*models.Principal); ok {
		return principal
	}
	return nil
}

// Middleware resolves the session token of each request. Requests without a
// token continue anonymously; requests with an unusable token are rejected.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractToken(r)
			if err != nil {
				reject(w, r, err)
				return
			}
			if token == "" || resolver == nil {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := resolver.Resolve(token)
			if err != nil {
				reject(w, r, err)
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			logger := logging.FromContext(ctx).With("user_id", principal.ID)
			ctx = logging.WithLogger(ctx, logger)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var errMalformedHeader = errors.New("authorization header must be 'Bearer <token>'")

func extractToken(r *http.Request) (string, error) {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", errMalformedHeader
		}
		return strings.TrimSpace(parts[1]), nil
	}

	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(cookie.Value), nil
	}
	return "", nil
}

func reject(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Warn("rejected session token", "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"invalid session"}` + "\n"))
}
