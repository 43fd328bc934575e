// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// allEnvVars lists every variable Load reads.
var allEnvVars = []string{
	"BLOG_CONFIG",
	"APP_HOST", "APP_PORT", "APP_ENV", "LOG_LEVEL",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_SSLMODE",
	"DB_MAX_CONNS", "DB_IDLE_TIMEOUT", "DB_CONNECT_TIMEOUT",
	"CORS_ORIGIN", "CORS_METHODS",
	"COGNITO_REGION", "COGNITO_USER_POOL_ID", "COGNITO_CLIENT_ID",
	"S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_PUBLIC_URL",
	"COMMENT_RATE_LIMIT",
}

// clearEnv sets every variable to empty, which envOrDefault treats as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

// TestLoad_Defaults verifies that Load returns sensible development defaults
// when no environment variables are set.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if diff := cmp.Diff(defaults(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if cfg.DBMaxConns != 10 {
		t.Errorf("DBMaxConns = %d, want 10", cfg.DBMaxConns)
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled() = true with no Cognito settings")
	}
	if cfg.StorageEnabled() {
		t.Error("StorageEnabled() = true with no S3 settings")
	}
}

// TestLoad_EnvOverrides verifies that environment variables override the
// defaults.
func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	overrides := map[string]string{
		"APP_HOST":             "127.0.0.1",
		"APP_PORT":             "9090",
		"APP_ENV":              "testing",
		"LOG_LEVEL":            "debug",
		"POSTGRES_HOST":        "db.example.com",
		"POSTGRES_PORT":        "5433",
		"POSTGRES_USER":        "testuser",
		"POSTGRES_PASSWORD":    "testpass",
		"POSTGRES_DB":          "testdb",
		"POSTGRES_SSLMODE":     "require",
		"DB_MAX_CONNS":         "4",
		"DB_IDLE_TIMEOUT":      "1m",
		"DB_CONNECT_TIMEOUT":   "500ms",
		"CORS_ORIGIN":          "https://blog.example.com",
		"CORS_METHODS":         "get, post",
		"COGNITO_REGION":       "eu-west-1",
		"COGNITO_USER_POOL_ID": "eu-west-1_abc",
		"COGNITO_CLIENT_ID":    "client123",
		"S3_ENDPOINT":          "https://s3.example.com",
		"S3_REGION":            "eu-central-1",
		"S3_ACCESS_KEY":        "AKIATEST",
		"S3_SECRET_KEY":        "secrettest",
		"S3_BUCKET":            "blog-media",
		"S3_PUBLIC_URL":        "https://cdn.example.com",
		"COMMENT_RATE_LIMIT":   "12",
	}
	for key, val := range overrides {
		t.Setenv(key, val)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	want := &Config{
		Host:              "127.0.0.1",
		Port:              "9090",
		Env:               "testing",
		LogLevel:          "debug",
		DBHost:            "db.example.com",
		DBPort:            "5433",
		DBUser:            "testuser",
		DBPassword:        "testpass",
		DBName:            "testdb",
		DBSSLMode:         "require",
		DBMaxConns:        4,
		DBIdleTimeout:     time.Minute,
		DBConnectTimeout:  500 * time.Millisecond,
		CORSOrigin:        "https://blog.example.com",
		CORSMethods:       "get, post",
		CognitoRegion:     "eu-west-1",
		CognitoUserPoolID: "eu-west-1_abc",
		CognitoClientID:   "client123",
		S3Endpoint:        "https://s3.example.com",
		S3Region:          "eu-central-1",
		S3AccessKey:       "AKIATEST",
		S3SecretKey:       "secrettest",
		S3Bucket:          "blog-media",
		S3PublicURL:       "https://cdn.example.com",
		CommentRateLimit:  12,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if !cfg.AuthEnabled() {
		t.Error("AuthEnabled() = false with full Cognito settings")
	}
	if !cfg.StorageEnabled() {
		t.Error("StorageEnabled() = false with full S3 settings")
	}
	if diff := cmp.Diff([]string{"GET", "POST"}, cfg.Methods()); diff != "" {
		t.Errorf("Methods() mismatch (-want +got):\n%s", diff)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
}

func TestLoad_PartialCognitoKeepsAuthDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("COGNITO_REGION", "eu-west-1")
	t.Setenv("COGNITO_USER_POOL_ID", "eu-west-1_abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled() = true without a client id")
	}
}

func TestLoad_InvalidNumbers(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"max conns not a number", "DB_MAX_CONNS", "ten"},
		{"max conns zero", "DB_MAX_CONNS", "0"},
		{"idle timeout", "DB_IDLE_TIMEOUT", "soon"},
		{"connect timeout", "DB_CONNECT_TIMEOUT", "5"},
		{"comment limit", "COMMENT_RATE_LIMIT", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

// TestLoad_ProductionRequiresPassword verifies that production mode rejects
// the default "changeme" password and accepts a real one.
func TestLoad_ProductionRequiresPassword(t *testing.T) {
	t.Run("rejects default password", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for default password in production")
		}
		if !strings.Contains(err.Error(), "POSTGRES_PASSWORD") {
			t.Errorf("error should mention POSTGRES_PASSWORD, got: %v", err)
		}
	})

	t.Run("accepts real password", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("POSTGRES_PASSWORD", "s3cure")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.IsDev() {
			t.Error("IsDev() = true in production")
		}
	})
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "blog.toml")
	content := `
port = "7000"
db_host = "file-db"
db_max_conns = 3
db_idle_timeout = "45s"
cors_origin = "https://file.example.com"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("BLOG_CONFIG", path)
	// Environment wins over the file.
	t.Setenv("POSTGRES_HOST", "env-db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Port != "7000" {
		t.Errorf("Port = %q, want 7000", cfg.Port)
	}
	if cfg.DBHost != "env-db" {
		t.Errorf("DBHost = %q, want env-db", cfg.DBHost)
	}
	if cfg.DBMaxConns != 3 {
		t.Errorf("DBMaxConns = %d, want 3", cfg.DBMaxConns)
	}
	if cfg.DBIdleTimeout != 45*time.Second {
		t.Errorf("DBIdleTimeout = %v, want 45s", cfg.DBIdleTimeout)
	}
	if cfg.DBConnectTimeout != 2*time.Second {
		t.Errorf("DBConnectTimeout = %v, want default 2s", cfg.DBConnectTimeout)
	}
	if cfg.CORSOrigin != "https://file.example.com" {
		t.Errorf("CORSOrigin = %q", cfg.CORSOrigin)
	}
}

func TestLoad_ConfigFileRejectsZeroCommentLimit(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "blog.toml")
	if err := os.WriteFile(path, []byte("comment_rate_limit = 0\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("BLOG_CONFIG", path)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for comment_rate_limit = 0")
	}
	if !strings.Contains(err.Error(), "comment rate limit") {
		t.Errorf("error should mention the comment rate limit, got: %v", err)
	}
}

func TestLoad_ConfigFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("BLOG_CONFIG", filepath.Join(t.TempDir(), "nope.toml"))

	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBUser: "u", DBPassword: "p@ss", DBHost: "h", DBPort: "5432",
		DBName: "d", DBSSLMode: "disable",
	}
	want := "postgres://u:p%40ss@h:5432/d?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestAddr(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: "8080"}
	if got := cfg.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
