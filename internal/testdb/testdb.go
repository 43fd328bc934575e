//go:build integration

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package testdb provides a migrated PostgreSQL database for integration
// tests. It uses DATABASE_URL when set and otherwise starts a throwaway
// container. Packages sharing one DATABASE_URL must run with -p 1 since
// every test starts from truncated tables.
package testdb

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"blogapi/internal/database"
)

var (
	once      sync.Once
	dsn       string
	setupErr  error
	container *postgres.PostgresContainer
)

// Main runs the package's tests and terminates the container afterwards.
// Call it from TestMain.
func Main(m *testing.M) int {
	code := m.Run()
	if container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = container.Terminate(ctx)
	}
	return code
}

func resolveDSN() (string, error) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v, nil
	}

	ctx := context.Background()
	c, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("blog_test"),
		postgres.WithUsername("blog"),
		postgres.WithPassword("blog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return "", err
	}
	container = c
	return c.ConnectionString(ctx, "sslmode=disable")
}

// New returns a connected, migrated database with every table emptied.
// The test is skipped when no database can be reached.
func New(t *testing.T) *database.DB {
	t.Helper()

	once.Do(func() { dsn, setupErr = resolveDSN() })
	if setupErr != nil {
		t.Skipf("skipping: no database available: %v", setupErr)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, database.Options{DSN: dsn, MaxConns: 5, ConnectTimeout: 5 * time.Second})
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	t.Cleanup(db.Close)

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := db.Exec(ctx, `
		TRUNCATE media, comments, post_tags, tags, posts, categories, users
		RESTART IDENTITY CASCADE
	`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

// DSN returns the connection string New connects to. New must have been
// called first.
func DSN() string {
	return dsn
}
