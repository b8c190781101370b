package handlers

import (
	"net"
	"net/http"
	"strings"
)

// RateLimiter bounds how often one client may call a mutating endpoint.
type RateLimiter interface {
	Allow(key string) bool
}

// allow consumes one event of scope for the calling client, answering 429
// when its budget is spent. A nil limiter allows everything.
func allow(w http.ResponseWriter, r *http.Request, limiter RateLimiter, scope string) bool {
	if limiter == nil || limiter.Allow(rateLimitKey(r, scope)) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	respondJSON(r.Context(), w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
	return false
}

func rateLimitKey(r *http.Request, scope string) string {
	ip := clientIP(r)
	if scope == "" {
		return ip
	}
	return scope + ":" + ip
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the peer address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}
