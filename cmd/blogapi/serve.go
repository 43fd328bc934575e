// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"blogapi/internal/auth"
	"blogapi/internal/database"
	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/router"
	"blogapi/internal/storage"
	"blogapi/internal/store"
)

// shutdownTimeout is how long active requests get to finish.
const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// runServe connects to every backing service, builds the router, and
// serves until SIGINT or SIGTERM.
func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if cfg.IsDev() {
		if err := database.Seed(ctx, db); err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
	}

	mode, err := authMode(ctx)
	if err != nil {
		return err
	}

	objects, err := objectStore()
	if err != nil {
		return err
	}

	// Initialize data stores.
	posts := store.NewPostStore(db)
	tags := store.NewTagStore(db)
	users := store.NewUserStore(db)
	categories := store.NewCategoryStore(db)
	comments := store.NewCommentStore(db)
	stats := store.NewStatsStore(db)
	media := store.NewMediaStore(db)

	limiter := middleware.NewRateLimiter(cfg.CommentRateLimit, time.Minute)
	defer limiter.Stop()

	postHandlers := handlers.NewPosts(posts, tags, users)
	gate := middleware.NewAuthGate(mode, slog.Default())
	r := router.New(router.Deps{
		Posts:          postHandlers,
		Categories:     handlers.NewCategories(categories),
		Comments:       handlers.NewComments(comments, posts),
		Admin:          handlers.NewAdmin(stats, posts, comments),
		Media:          handlers.NewMedia(media, objects),
		Gate:           gate,
		CommentLimiter: limiter,
		CORSOrigin:     cfg.CORSOrigin,
		CORSMethods:    cfg.Methods(),
		DB:             db,
		Started:        time.Now(),
	})

	// Create the HTTP server with sensible timeouts. WriteTimeout leaves
	// room for 10 MB media uploads.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "auth", gate.Mode().String(), "media", objects != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	// View-count updates outlive their requests; finish them before the
	// pool closes.
	postHandlers.Wait()

	slog.Info("server stopped gracefully")
	return nil
}

// authMode picks the gate's mode: Enforcing when Cognito is fully
// configured, Disabled otherwise.
func authMode(ctx context.Context) (middleware.AuthMode, error) {
	if !cfg.AuthEnabled() {
		return middleware.Disabled(), nil
	}
	verifier, err := auth.NewCognitoVerifier(ctx, auth.CognitoConfig{
		Region:     cfg.CognitoRegion,
		UserPoolID: cfg.CognitoUserPoolID,
		ClientID:   cfg.CognitoClientID,
	})
	if err != nil {
		return middleware.AuthMode{}, err
	}
	slog.Info("cognito verifier ready", "region", cfg.CognitoRegion, "user_pool", cfg.CognitoUserPoolID)
	return middleware.Enforcing(verifier), nil
}

// objectStore connects to S3 when configured. A nil result disables the
// media routes.
func objectStore() (handlers.ObjectStore, error) {
	client, err := storage.New(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize s3 storage: %w", err)
	}
	if client == nil {
		slog.Warn("s3 storage not configured, media uploads disabled")
		return nil, nil
	}
	slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	return client, nil
}
