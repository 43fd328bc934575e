// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"blogapi/internal/auth"
)

// AuthMode is fixed at process start: Disabled when no identity provider
// is configured, Enforcing otherwise.
type AuthMode struct {
	verifier auth.Verifier
}

// Disabled returns the dev-bypass mode. Every request passes with
// auth.DevIdentity.
func Disabled() AuthMode {
	return AuthMode{}
}

// Enforcing returns the mode that requires a bearer token accepted by v.
func Enforcing(v auth.Verifier) AuthMode {
	return AuthMode{verifier: v}
}

// Enforcing reports whether tokens are checked.
func (m AuthMode) Enforcing() bool {
	return m.verifier != nil
}

// String returns "enforcing" or "disabled".
func (m AuthMode) String() string {
	if m.Enforcing() {
		return "enforcing"
	}
	return "disabled"
}

// AuthGate guards admin routes. In Enforcing mode it requires a valid
// bearer token; in Disabled mode it stamps the dev identity and warns once.
type AuthGate struct {
	mode   AuthMode
	logger *slog.Logger
	warn   sync.Once
}

// NewAuthGate creates a gate in the given mode. A nil logger uses
// slog.Default.
func NewAuthGate(mode AuthMode, logger *slog.Logger) *AuthGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthGate{mode: mode, logger: logger}
}

// Mode returns the gate's mode.
func (g *AuthGate) Mode() AuthMode {
	return g.mode
}

// Middleware attaches the caller's auth.Identity to the request context or
// rejects the request: 401 without a usable bearer token, 403 when the
// token fails verification.
func (g *AuthGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.mode.Enforcing() {
			g.warn.Do(func() {
				g.logger.Warn("auth gate disabled: admin routes accept every request as the dev identity")
			})
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), auth.DevIdentity())))
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header must be Bearer <token>")
			return
		}

		id, err := g.mode.verifier.Verify(r.Context(), token)
		if err != nil {
			g.logger.Info("token rejected",
				"path", r.URL.Path,
				"request_id", RequestIDFromCtx(r.Context()),
				"error", err,
			)
			writeError(w, http.StatusForbidden, "Invalid or expired token")
			return
		}

		g.logger.Debug("token accepted",
			"sub", id.Subject,
			"admin", id.InGroup(auth.AdminGroup),
			"request_id", RequestIDFromCtx(r.Context()),
		)
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}
