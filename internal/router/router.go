// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// blog API. It organizes routes into public and admin groups; every admin
// route sits behind the auth gate.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
)

// readyTimeout bounds the readiness ping.
const readyTimeout = 2 * time.Second

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the router wires together.
type Deps struct {
	Posts      *handlers.Posts
	Categories *handlers.Categories
	Comments   *handlers.Comments
	Admin      *handlers.Admin
	Media      *handlers.Media

	Gate           *middleware.AuthGate
	CommentLimiter *middleware.RateLimiter

	CORSOrigin  string
	CORSMethods []string

	// DB backs /health/ready.
	DB Pinger
	// Started is reported as uptime by /health.
	Started time.Time
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(d.CORSOrigin, d.CORSMethods))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	// Health checks, no auth.
	r.Get("/health", healthHandler(d.Started))
	r.Get("/health/ready", readyHandler(d.DB))

	r.Route("/api", func(r chi.Router) {
		// Public reads and comment submission.
		r.Get("/posts", d.Posts.List)
		r.Get("/posts/{slug}", d.Posts.GetBySlug)
		r.Get("/categories", d.Categories.List)
		r.Get("/posts/{postId}/comments", d.Comments.List)
		r.With(d.CommentLimiter.Middleware).Post("/posts/{postId}/comments", d.Comments.Create)

		// Admin writes.
		r.Group(func(r chi.Router) {
			r.Use(d.Gate.Middleware)

			r.Post("/posts", d.Posts.Create)
			r.Put("/posts/{id}", d.Posts.Update)
			r.Delete("/posts/{id}", d.Posts.Delete)
			r.Post("/categories", d.Categories.Create)
			r.Put("/comments/{id}/status", d.Comments.UpdateStatus)
		})

		// Management views.
		r.Route("/admin", func(r chi.Router) {
			r.Use(d.Gate.Middleware)

			r.Get("/stats", d.Admin.Stats)
			r.Get("/posts", d.Admin.ListPosts)
			r.Get("/posts/{id}", d.Admin.GetPost)
			r.Get("/comments", d.Admin.ListComments)
			r.Get("/media", d.Media.List)
			r.Post("/media", d.Media.Upload)
			r.Delete("/media/{id}", d.Media.Delete)
		})
	})

	return r
}

// healthHandler reports liveness and process uptime in seconds.
func healthHandler(started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(started).Seconds(),
		})
	}
}

// readyHandler reports whether the database answers a ping.
func readyHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
