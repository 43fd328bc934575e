// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"blogapi/internal/config"
	"blogapi/internal/database"
)

var (
	// Global flags
	configPath string

	// cfg is loaded once before any subcommand runs.
	cfg *config.Config
)

// rootCmd serves the API when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "blogapi",
	Short: "Blog REST API server",
	Long: `blogapi serves the blog's JSON API: posts, categories, comments,
admin statistics, and media uploads, backed by PostgreSQL.

Configuration comes from environment variables, optionally layered over a
TOML file given with --config or BLOG_CONFIG.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML configuration file (overrides BLOG_CONFIG)")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, userCmd)
}

// setup loads configuration and installs the process logger.
func setup(cmd *cobra.Command, _ []string) error {
	if configPath != "" {
		if err := os.Setenv("BLOG_CONFIG", configPath); err != nil {
			return err
		}
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	slog.SetDefault(newLogger(os.Stdout, cfg))
	slog.Debug("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())
	return nil
}

// newLogger returns colourised text output in development and JSON
// everywhere else.
func newLogger(w io.Writer, c *config.Config) *slog.Logger {
	if c.IsDev() {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.TimeOnly,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.SlogLevel()}))
}

// connect opens the bounded pool described by the configuration.
func connect(ctx context.Context) (*database.DB, error) {
	db, err := database.Connect(ctx, database.Options{
		DSN:            cfg.DSN(),
		MaxConns:       cfg.DBMaxConns,
		IdleTimeout:    cfg.DBIdleTimeout,
		ConnectTimeout: cfg.DBConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}
