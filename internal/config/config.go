// Package config loads confvault settings from CONFVAULT_* environment
// variables, optionally layered over a TOML file named by CONFVAULT_CONFIG.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Backends
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	Backend     string // CONFVAULT_BACKEND ("file" or "postgres"; default "postgres" when a database URL is set)
	DataDir     string // CONFVAULT_DATA_DIR (default "data/confvault")
	DatabaseURL string // CONFVAULT_DATABASE_URL (required for postgres)
	NATSURL     string // CONFVAULT_NATS_URL (optional, empty = no events)
	Actor       string // CONFVAULT_ACTOR (recorded as created_by; default "system")
	Bootstrap   bool   // CONFVAULT_BOOTSTRAP (seed defaults into an empty store; default true)
	LogLevel    slog.Level

	// Sync settings
	SyncInterval   time.Duration // CONFVAULT_SYNC_INTERVAL (default 3m; 0 = one-shot only)
	SyncS3Bucket   string        // CONFVAULT_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // CONFVAULT_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // CONFVAULT_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // CONFVAULT_SYNC_S3_KEY (default "confvault/store.jsonl")
	SyncGitRepo    string        // CONFVAULT_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // CONFVAULT_SYNC_GIT_FILE (default "confvault.jsonl")
	SyncGitBranch  string        // CONFVAULT_SYNC_GIT_BRANCH (default "main")
	SyncFile       string        // CONFVAULT_SYNC_FILE (enables a local file copy when set)
}

// fileConfig is the TOML layout of the file named by CONFVAULT_CONFIG.
type fileConfig struct {
	Backend     string `toml:"backend"`
	DataDir     string `toml:"data_dir"`
	DatabaseURL string `toml:"database_url"`
	NATSURL     string `toml:"nats_url"`
	Actor       string `toml:"actor"`
	Bootstrap   *bool  `toml:"bootstrap"`
	LogLevel    string `toml:"log_level"`

	Sync struct {
		Interval string `toml:"interval"`
		File     string `toml:"file"`
		S3       struct {
			Bucket   string `toml:"bucket"`
			Endpoint string `toml:"endpoint"`
			Region   string `toml:"region"`
			Key      string `toml:"key"`
		} `toml:"s3"`
		Git struct {
			Repo   string `toml:"repo"`
			File   string `toml:"file"`
			Branch string `toml:"branch"`
		} `toml:"git"`
	} `toml:"sync"`
}

// Load reads the configuration. Environment variables override values from
// the TOML file, which override the built-in defaults.
func Load() (*Config, error) {
	var fc fileConfig
	if path := os.Getenv("CONFVAULT_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return nil, fmt.Errorf("CONFVAULT_CONFIG %s: %w", path, err)
		}
	}

	c := &Config{
		DataDir:        envOrDefault("CONFVAULT_DATA_DIR", orDefault(fc.DataDir, "data/confvault")),
		DatabaseURL:    envOrDefault("CONFVAULT_DATABASE_URL", fc.DatabaseURL),
		NATSURL:        envOrDefault("CONFVAULT_NATS_URL", fc.NATSURL),
		Actor:          envOrDefault("CONFVAULT_ACTOR", orDefault(fc.Actor, "system")),
		SyncS3Bucket:   envOrDefault("CONFVAULT_SYNC_S3_BUCKET", fc.Sync.S3.Bucket),
		SyncS3Endpoint: envOrDefault("CONFVAULT_SYNC_S3_ENDPOINT", fc.Sync.S3.Endpoint),
		SyncS3Region:   envOrDefault("CONFVAULT_SYNC_S3_REGION", orDefault(fc.Sync.S3.Region, "us-east-1")),
		SyncS3Key:      envOrDefault("CONFVAULT_SYNC_S3_KEY", orDefault(fc.Sync.S3.Key, "confvault/store.jsonl")),
		SyncGitRepo:    envOrDefault("CONFVAULT_SYNC_GIT_REPO", fc.Sync.Git.Repo),
		SyncGitFile:    envOrDefault("CONFVAULT_SYNC_GIT_FILE", orDefault(fc.Sync.Git.File, "confvault.jsonl")),
		SyncGitBranch:  envOrDefault("CONFVAULT_SYNC_GIT_BRANCH", orDefault(fc.Sync.Git.Branch, "main")),
		SyncFile:       envOrDefault("CONFVAULT_SYNC_FILE", fc.Sync.File),
	}

	defaultBackend := BackendFile
	if c.DatabaseURL != "" {
		defaultBackend = BackendPostgres
	}
	c.Backend = strings.ToLower(envOrDefault("CONFVAULT_BACKEND", orDefault(fc.Backend, defaultBackend)))
	switch c.Backend {
	case BackendFile:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("CONFVAULT_DATABASE_URL is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("CONFVAULT_BACKEND: unknown backend %q", c.Backend)
	}

	bootstrap := "true"
	if fc.Bootstrap != nil {
		bootstrap = strconv.FormatBool(*fc.Bootstrap)
	}
	b, err := strconv.ParseBool(envOrDefault("CONFVAULT_BOOTSTRAP", bootstrap))
	if err != nil {
		return nil, fmt.Errorf("CONFVAULT_BOOTSTRAP: %w", err)
	}
	c.Bootstrap = b

	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault("CONFVAULT_LOG_LEVEL", orDefault(fc.LogLevel, "info")))); err != nil {
		return nil, fmt.Errorf("CONFVAULT_LOG_LEVEL: %w", err)
	}

	intervalStr := envOrDefault("CONFVAULT_SYNC_INTERVAL", orDefault(fc.Sync.Interval, "3m"))
	d, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("CONFVAULT_SYNC_INTERVAL: %w", err)
	}
	if d < 0 {
		return nil, fmt.Errorf("CONFVAULT_SYNC_INTERVAL: must not be negative")
	}
	c.SyncInterval = d

	return c, nil
}

// SyncEnabled reports whether any sync destination is configured.
func (c *Config) SyncEnabled() bool {
	return c.SyncS3Bucket != "" || c.SyncGitRepo != "" || c.SyncFile != ""
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
