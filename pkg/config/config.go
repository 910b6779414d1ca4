// Package config loads the engine configuration from a YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/history"
	"github.com/dd0wney/cluso-lessongraph/pkg/kvstore"
	"github.com/dd0wney/cluso-lessongraph/pkg/layout"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/dd0wney/cluso-lessongraph/pkg/persistence"
	"github.com/dd0wney/cluso-lessongraph/pkg/validation"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values
const (
	EnvStorageBackend = "LESSONGRAPH_STORAGE_BACKEND"
	EnvStoragePath    = "LESSONGRAPH_STORAGE_PATH"
	EnvDatabaseURL    = "LESSONGRAPH_DATABASE_URL"
	EnvServerAddr     = "LESSONGRAPH_ADDR"
	EnvLogLevel       = "LOG_LEVEL"
)

// StorageConfig selects the durable store
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	DatabaseURL string `yaml:"database_url"`
}

// Options converts the storage section to kvstore options
func (s StorageConfig) Options() kvstore.Options {
	return kvstore.Options{Backend: s.Backend, Path: s.Path, DatabaseURL: s.DatabaseURL}
}

// HistoryConfig bounds the undo list
type HistoryConfig struct {
	Capacity int `yaml:"capacity"`
}

// AutosaveConfig controls write coalescing
type AutosaveConfig struct {
	Debounce    time.Duration `yaml:"debounce"`
	SaveTimeout time.Duration `yaml:"save_timeout"`
}

// ServerConfig is the HTTP listener
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Config is the complete engine configuration
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Storage  StorageConfig  `yaml:"storage"`
	History  HistoryConfig  `yaml:"history"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Layout   layout.Config  `yaml:"layout"`
	Server   ServerConfig   `yaml:"server"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Storage: StorageConfig{
			Backend: kvstore.BackendFile,
			Path:    "./data/lessongraph.db",
		},
		History:  HistoryConfig{Capacity: history.DefaultCapacity},
		Autosave: AutosaveConfig{Debounce: persistence.DefaultDebounce, SaveTimeout: 5 * time.Second},
		Layout:   layout.DefaultConfig(),
		Server:   ServerConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Storage.Backend = getEnvOrDefault(EnvStorageBackend, c.Storage.Backend)
	c.Storage.Path = getEnvOrDefault(EnvStoragePath, c.Storage.Path)
	c.Storage.DatabaseURL = getEnvOrDefault(EnvDatabaseURL, c.Storage.DatabaseURL)
	c.Server.Addr = getEnvOrDefault(EnvServerAddr, c.Server.Addr)
	c.LogLevel = strings.ToLower(getEnvOrDefault(EnvLogLevel, c.LogLevel))
}

// Validate checks every section and reports all problems at once
func (c *Config) Validate() error {
	backend := c.Storage.Backend
	return validation.NewConfigValidator("Config").
		OneOf("log_level", c.LogLevel, []string{"debug", "info", "warn", "error"}).
		OneOf("storage.backend", backend, kvstore.Backends()).
		When(backend == kvstore.BackendFile || backend == kvstore.BackendSQLite, func(cv *validation.ConfigValidator) {
			cv.Required("storage.path", c.Storage.Path)
		}).
		When(backend == kvstore.BackendPostgres, func(cv *validation.ConfigValidator) {
			cv.Required("storage.database_url", c.Storage.DatabaseURL)
		}).
		RangeInt("history.capacity", c.History.Capacity, 1, 10000).
		RangeDuration("autosave.debounce", c.Autosave.Debounce, time.Millisecond, time.Minute).
		RangeDuration("autosave.save_timeout", c.Autosave.SaveTimeout, time.Millisecond, 5*time.Minute).
		PositiveFloat("layout.rank_spacing", c.Layout.RankSpacing).
		PositiveFloat("layout.node_spacing", c.Layout.NodeSpacing).
		NonNegativeFloat("layout.branch_offset", c.Layout.BranchOffset).
		Positive("layout.cache_size", c.Layout.CacheSize).
		Required("server.addr", c.Server.Addr).
		Validate()
}

// Level returns the parsed log level
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
