// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"blogapi/internal/database"
)

// migrateCmd groups the schema subcommands.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Manage the embedded database migrations.

Subcommands:
  up      - Apply pending migrations
  down    - Roll back the most recent migration
  status  - Show migration status`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		return database.Migrate(cmd.Context(), db)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		return database.MigrateDown(cmd.Context(), db)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		return database.MigrationStatus(cmd.Context(), db)
	},
}

// seedCmd loads the demo dataset into an empty database.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo content into an empty database",
	Long: `Apply pending migrations, then insert the embedded demo author,
categories, posts, and comments. Does nothing when users already exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		if err := database.Seed(ctx, db); err != nil {
			return err
		}

		res, err := db.Run(ctx, `
			SELECT (SELECT COUNT(*) FROM users),
			       (SELECT COUNT(*) FROM categories),
			       (SELECT COUNT(*) FROM posts),
			       (SELECT COUNT(*) FROM comments)
		`)
		if err != nil {
			return fmt.Errorf("count seeded rows: %w", err)
		}
		row := res.Rows[0]
		cmd.Printf("users: %v  categories: %v  posts: %v  comments: %v\n", row[0], row[1], row[2], row[3])
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}
