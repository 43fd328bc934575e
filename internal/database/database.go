// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package database handles PostgreSQL connection management and migration
// execution using goose. Connect returns a bounded pgx pool wrapped in a DB
// that every store queries through; Migrate applies the embedded schema.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ErrUnavailable marks failures to reach the database at all (pool
// exhaustion past the acquire timeout, dial errors, dropped connections).
// Query errors reported by Postgres itself are returned unchanged.
var ErrUnavailable = errors.New("database unavailable")

// Querier is the statement surface the stores depend on. *DB and
// *pgxpool.Pool both satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Options bounds the connection pool.
type Options struct {
	DSN            string
	MaxConns       int32
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
}

// DB wraps a pgx pool. Connections are borrowed per statement and released
// as soon as the statement's rows are closed.
type DB struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

// Connect opens a PostgreSQL connection pool using the provided options.
// It verifies the connection with a ping before returning.
func Connect(ctx context.Context, opts Options) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("database parse config: %w", err)
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.IdleTimeout > 0 {
		cfg.MaxConnIdleTime = opts.IdleTimeout
	}
	if opts.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}

	db := &DB{pool: pool, acquireTimeout: cfg.ConnConfig.ConnectTimeout}
	if db.acquireTimeout <= 0 {
		db.acquireTimeout = 2 * time.Second
	}

	// Verify the connection is alive.
	if err := db.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	slog.Info("database connected",
		"max_conns", cfg.MaxConns,
		"idle_timeout", cfg.MaxConnIdleTime.String(),
		"connect_timeout", cfg.ConnConfig.ConnectTimeout.String(),
	)
	return db, nil
}

// Close closes every connection in the pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Pool exposes the underlying pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping acquires a connection and round-trips to the server.
func (db *DB) Ping(ctx context.Context) error {
	conn, err := db.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return db.classify("ping", conn.Ping(ctx))
}

// Query runs a parameterised statement and returns its rows. The borrowed
// connection goes back to the pool when the rows are closed.
func (db *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	conn, err := db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		conn.Release()
		return nil, db.classify("query", err)
	}
	return &releasingRows{Rows: rows, conn: conn}, nil
}

// QueryRow runs a statement expected to return at most one row. Errors are
// deferred to Scan, matching pgx.Row semantics.
func (db *DB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	rows, err := db.Query(ctx, sql, args...)
	return &singleRow{db: db, rows: rows, err: err}
}

// Exec runs a statement that returns no rows and reports its command tag.
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	conn, err := db.acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return tag, db.classify("exec", err)
	}
	return tag, nil
}

// Result is a fully materialised statement result.
type Result struct {
	Rows       [][]any
	RowCount   int64
	CommandTag string
}

// Run executes a statement and collects every row, the affected-row count,
// and the command tag. Meant for small administrative queries.
func (db *DB) Run(ctx context.Context, sql string, args ...any) (*Result, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &Result{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read values: %w", err)
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, db.classify("run", err)
	}
	rows.Close()

	tag := rows.CommandTag()
	res.RowCount = tag.RowsAffected()
	res.CommandTag = tag.String()
	return res, nil
}

// acquire borrows a connection, failing fast once the acquire timeout
// passes instead of queueing behind a saturated pool.
func (db *DB) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	actx, cancel := context.WithTimeout(ctx, db.acquireTimeout)
	defer cancel()

	conn, err := db.pool.Acquire(actx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Error("database connection unavailable", "op", "acquire", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return conn, nil
}

// classify turns connection-level failures into ErrUnavailable and logs
// them. Server-reported errors, no-rows, and caller cancellation pass
// through untouched.
func (db *DB) classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) || errors.Is(err, pgx.ErrNoRows) || errors.Is(err, context.Canceled) {
		return err
	}
	if isConnectionError(err) {
		slog.Error("database connection unavailable", "op", op, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func isConnectionError(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.Timeout(err) || pgconn.SafeToRetry(err)
}

// releasingRows returns the borrowed connection when the rows close.
type releasingRows struct {
	pgx.Rows
	conn *pgxpool.Conn
	once sync.Once
}

func (r *releasingRows) Close() {
	r.Rows.Close()
	r.once.Do(r.conn.Release)
}

// singleRow implements pgx.Row over a pooled Query.
type singleRow struct {
	db   *DB
	rows pgx.Rows
	err  error
}

func (r *singleRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	defer r.rows.Close()

	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return r.db.classify("query row", err)
		}
		return pgx.ErrNoRows
	}
	if err := r.rows.Scan(dest...); err != nil {
		return err
	}
	r.rows.Close()
	return r.db.classify("query row", r.rows.Err())
}

// Migrate runs all pending goose migrations from the embedded SQL files.
// Migrations are embedded at compile time so no external files are needed
// at runtime.
func Migrate(ctx context.Context, db *DB) error {
	return withGoose(db, func(sqlDB *sql.DB) error {
		if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		slog.Info("database migrations applied")
		return nil
	})
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *DB) error {
	return withGoose(db, func(sqlDB *sql.DB) error {
		if err := goose.DownContext(ctx, sqlDB, "migrations"); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		slog.Info("database migration rolled back")
		return nil
	})
}

// MigrationStatus logs the applied state of every embedded migration.
func MigrationStatus(ctx context.Context, db *DB) error {
	return withGoose(db, func(sqlDB *sql.DB) error {
		if err := goose.StatusContext(ctx, sqlDB, "migrations"); err != nil {
			return fmt.Errorf("goose status: %w", err)
		}
		return nil
	})
}

// withGoose exposes the pool as a *sql.DB for goose. Closing that handle
// does not close the pool.
func withGoose(db *DB, fn func(*sql.DB) error) error {
	sqlDB := stdlib.OpenDBFromPool(db.pool)
	defer sqlDB.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	return fn(sqlDB)
}
