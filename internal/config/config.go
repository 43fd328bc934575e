// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables and an optional TOML file. It provides a centralized Config
// struct used across the application.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Env      string `toml:"env"` // "development", "production", "testing"
	LogLevel string `toml:"log_level"`

	// PostgreSQL connection
	DBHost     string `toml:"db_host"`
	DBPort     string `toml:"db_port"`
	DBUser     string `toml:"db_user"`
	DBPassword string `toml:"db_password"`
	DBName     string `toml:"db_name"`
	DBSSLMode  string `toml:"db_sslmode"`

	// Connection pool bounds
	DBMaxConns       int32         `toml:"db_max_conns"`
	DBIdleTimeout    time.Duration `toml:"-"`
	DBConnectTimeout time.Duration `toml:"-"`

	// CORS
	CORSOrigin  string `toml:"cors_origin"`
	CORSMethods string `toml:"cors_methods"`

	// Cognito identity provider. Auth is enforced only when all three are set.
	CognitoRegion     string `toml:"cognito_region"`
	CognitoUserPoolID string `toml:"cognito_user_pool_id"`
	CognitoClientID   string `toml:"cognito_client_id"`

	// S3-compatible media storage (optional)
	S3Endpoint  string `toml:"s3_endpoint"`
	S3Region    string `toml:"s3_region"`
	S3AccessKey string `toml:"s3_access_key"`
	S3SecretKey string `toml:"s3_secret_key"`
	S3Bucket    string `toml:"s3_bucket"`
	S3PublicURL string `toml:"s3_public_url"`

	// Public comment posts allowed per client IP per minute.
	CommentRateLimit int `toml:"comment_rate_limit"`
}

// defaults returns the development defaults.
func defaults() *Config {
	return &Config{
		Host:     "0.0.0.0",
		Port:     "8080",
		Env:      "development",
		LogLevel: "info",

		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "blog",
		DBPassword: "changeme",
		DBName:     "blog",
		DBSSLMode:  "disable",

		DBMaxConns:       10,
		DBIdleTimeout:    30 * time.Second,
		DBConnectTimeout: 2 * time.Second,

		CORSOrigin:  "*",
		CORSMethods: "GET,POST,PUT,DELETE,OPTIONS",

		S3Region: "us-east-1",

		CommentRateLimit: 5,
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// BLOG_CONFIG (if any), then environment variables. Returns an error if
// critical values are missing in production mode.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("BLOG_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Host = envOrDefault("APP_HOST", cfg.Host)
	cfg.Port = envOrDefault("APP_PORT", cfg.Port)
	cfg.Env = envOrDefault("APP_ENV", cfg.Env)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)

	cfg.DBHost = envOrDefault("POSTGRES_HOST", cfg.DBHost)
	cfg.DBPort = envOrDefault("POSTGRES_PORT", cfg.DBPort)
	cfg.DBUser = envOrDefault("POSTGRES_USER", cfg.DBUser)
	cfg.DBPassword = envOrDefault("POSTGRES_PASSWORD", cfg.DBPassword)
	cfg.DBName = envOrDefault("POSTGRES_DB", cfg.DBName)
	cfg.DBSSLMode = envOrDefault("POSTGRES_SSLMODE", cfg.DBSSLMode)

	var err error
	if cfg.DBMaxConns, err = envInt32("DB_MAX_CONNS", cfg.DBMaxConns); err != nil {
		return nil, err
	}
	if cfg.DBIdleTimeout, err = envDuration("DB_IDLE_TIMEOUT", cfg.DBIdleTimeout); err != nil {
		return nil, err
	}
	if cfg.DBConnectTimeout, err = envDuration("DB_CONNECT_TIMEOUT", cfg.DBConnectTimeout); err != nil {
		return nil, err
	}

	cfg.CORSOrigin = envOrDefault("CORS_ORIGIN", cfg.CORSOrigin)
	cfg.CORSMethods = envOrDefault("CORS_METHODS", cfg.CORSMethods)

	cfg.CognitoRegion = envOrDefault("COGNITO_REGION", cfg.CognitoRegion)
	cfg.CognitoUserPoolID = envOrDefault("COGNITO_USER_POOL_ID", cfg.CognitoUserPoolID)
	cfg.CognitoClientID = envOrDefault("COGNITO_CLIENT_ID", cfg.CognitoClientID)

	cfg.S3Endpoint = envOrDefault("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3Region = envOrDefault("S3_REGION", cfg.S3Region)
	cfg.S3AccessKey = envOrDefault("S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = envOrDefault("S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3Bucket = envOrDefault("S3_BUCKET", cfg.S3Bucket)
	cfg.S3PublicURL = envOrDefault("S3_PUBLIC_URL", cfg.S3PublicURL)

	if v := os.Getenv("COMMENT_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("COMMENT_RATE_LIMIT must be a positive integer, got %q", v)
		}
		cfg.CommentRateLimit = n
	}

	if cfg.DBMaxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", cfg.DBMaxConns)
	}
	if cfg.CommentRateLimit <= 0 {
		return nil, fmt.Errorf("comment rate limit must be positive, got %d", cfg.CommentRateLimit)
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if !cfg.AuthEnabled() {
			slog.Warn("running in production without Cognito configuration; admin routes are open")
		}
	}

	return cfg, nil
}

// loadFile overlays values from a TOML file onto cfg. Keys absent from the
// file keep their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	// Durations are written as strings ("30s") in the file.
	var durations struct {
		IdleTimeout    string `toml:"db_idle_timeout"`
		ConnectTimeout string `toml:"db_connect_timeout"`
	}
	if err := toml.Unmarshal(data, &durations); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if durations.IdleTimeout != "" {
		if c.DBIdleTimeout, err = time.ParseDuration(durations.IdleTimeout); err != nil {
			return fmt.Errorf("db_idle_timeout: %w", err)
		}
	}
	if durations.ConnectTimeout != "" {
		if c.DBConnectTimeout, err = time.ParseDuration(durations.ConnectTimeout); err != nil {
			return fmt.Errorf("db_connect_timeout: %w", err)
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   c.DBHost + ":" + c.DBPort,
		Path:   "/" + c.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.DBSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// AuthEnabled reports whether the identity provider is fully configured.
func (c *Config) AuthEnabled() bool {
	return c.CognitoRegion != "" && c.CognitoUserPoolID != "" && c.CognitoClientID != ""
}

// StorageEnabled reports whether S3 media uploads are configured.
func (c *Config) StorageEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != "" && c.S3Bucket != ""
}

// Methods returns the configured CORS methods as a trimmed list.
func (c *Config) Methods() []string {
	var out []string
	for _, m := range strings.Split(c.CORSMethods, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, strings.ToUpper(m))
		}
	}
	return out
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt32(key string, fallback int32) (int32, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return int32(n), nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s, got %q", key, v)
	}
	return d, nil
}
