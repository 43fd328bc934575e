// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"blogapi/internal/auth"
)

// fakeVerifier accepts exactly one token.
type fakeVerifier struct {
	token string
	id    *auth.Identity
	calls int
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	f.calls++
	if token != f.token {
		return nil, errors.New("bad token")
	}
	return f.id, nil
}

// captureLogger returns a logger writing text records into buf.
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// identityEcho records the identity the gate attached.
func identityEcho(got **auth.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = auth.IdentityFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMode(t *testing.T) {
	if Disabled().Enforcing() || Disabled().String() != "disabled" {
		t.Error("Disabled() should not enforce")
	}
	m := Enforcing(&fakeVerifier{})
	if !m.Enforcing() || m.String() != "enforcing" {
		t.Error("Enforcing() should enforce")
	}
}

func TestAuthGate_Disabled(t *testing.T) {
	var buf bytes.Buffer
	gate := NewAuthGate(Disabled(), captureLogger(&buf))

	var got *auth.Identity
	handler := gate.Middleware(identityEcho(&got))

	t.Run("passes without a header and stamps the dev identity", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/posts", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("status: got %d, want 200", rr.Code)
		}
		if diff := cmp.Diff(auth.DevIdentity(), got); diff != "" {
			t.Errorf("identity mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ignores any header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
	})

	t.Run("warns exactly once", func(t *testing.T) {
		if n := strings.Count(buf.String(), "auth gate disabled"); n != 1 {
			t.Errorf("warning logged %d times, want 1:\n%s", n, buf.String())
		}
	})
}

// TestAuthGate_DisabledWarnsOnceUnderConcurrency drives the gate from many
// goroutines at once.
func TestAuthGate_DisabledWarnsOnceUnderConcurrency(t *testing.T) {
	var buf syncBuffer
	gate := NewAuthGate(Disabled(), slog.New(slog.NewTextHandler(&buf, nil)))
	handler := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		}()
	}
	wg.Wait()

	if n := strings.Count(buf.String(), "auth gate disabled"); n != 1 {
		t.Errorf("warning logged %d times, want 1", n)
	}
}

func TestAuthGate_Enforcing(t *testing.T) {
	want := &auth.Identity{Subject: "user-1", Email: "writer@example.com", Groups: []string{"admins"}}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantVerify bool
		wantError  string
	}{
		{"missing header", "", http.StatusUnauthorized, false, "Authorization header required"},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, false, "Bearer"},
		{"bearer without token", "Bearer ", http.StatusUnauthorized, false, "Bearer"},
		{"token without scheme", "good-token", http.StatusUnauthorized, false, "Bearer"},
		{"invalid token", "Bearer bad-token", http.StatusForbidden, true, "Invalid or expired token"},
		{"valid token", "Bearer good-token", http.StatusOK, true, ""},
		{"scheme is case-insensitive", "bearer good-token", http.StatusOK, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &fakeVerifier{token: "good-token", id: want}
			var buf bytes.Buffer
			gate := NewAuthGate(Enforcing(verifier), captureLogger(&buf))

			var got *auth.Identity
			handler := gate.Middleware(identityEcho(&got))

			req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if (verifier.calls > 0) != tt.wantVerify {
				t.Errorf("verifier called %d times, wantVerify=%v", verifier.calls, tt.wantVerify)
			}
			if tt.wantStatus == http.StatusOK {
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("identity mismatch (-want +got):\n%s", diff)
				}
				return
			}
			if got != nil {
				t.Error("rejected request must not reach the handler")
			}
			if !strings.Contains(rr.Body.String(), tt.wantError) {
				t.Errorf("body %q should contain %q", rr.Body.String(), tt.wantError)
			}
			if strings.Contains(buf.String(), "auth gate disabled") {
				t.Error("enforcing gate must not log the dev-bypass warning")
			}
		})
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
