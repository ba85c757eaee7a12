// Package config loads choirstage configuration.
//
// Values are layered, later sources winning:
//
//  1. built-in defaults
//  2. a TOML file (--config, or ~/.config/choirstage/config.toml if present)
//  3. .env files in the working directory
//  4. CHOIRSTAGE_* environment variables
//
// Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/matzehuels/choirstage/pkg/cache"
	"github.com/matzehuels/choirstage/pkg/core/snap"
	"github.com/matzehuels/choirstage/pkg/session"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "CHOIRSTAGE_"

// Storage backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreMongo  = "mongo"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config is the complete configuration.
type Config struct {
	LogLevel string       `toml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Server   ServerConfig `toml:"server" envPrefix:"SERVER_"`
	Store    StoreConfig  `toml:"store" envPrefix:"STORE_"`
	Cache    CacheConfig  `toml:"cache" envPrefix:"CACHE_"`
	Editor   EditorConfig `toml:"editor" envPrefix:"EDITOR_"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `toml:"addr" env:"ADDR" validate:"required"`
	ReadTimeout     time.Duration `toml:"read_timeout" env:"READ_TIMEOUT" validate:"gte=0"`
	WriteTimeout    time.Duration `toml:"write_timeout" env:"WRITE_TIMEOUT" validate:"gte=0"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"gte=0"`
	// MaxBodyBytes limits request bodies.
	MaxBodyBytes int64 `toml:"max_body_bytes" env:"MAX_BODY_BYTES" validate:"gt=0"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Backend string              `toml:"backend" env:"BACKEND" validate:"oneof=memory file mongo"`
	Dir     string              `toml:"dir" env:"DIR"`
	Mongo   session.MongoConfig `toml:"mongo" envPrefix:"MONGO_"`
}

// CacheConfig selects and configures the layout cache.
type CacheConfig struct {
	Backend string            `toml:"backend" env:"BACKEND" validate:"oneof=none file redis"`
	Dir     string            `toml:"dir" env:"DIR"`
	TTL     time.Duration     `toml:"ttl" env:"TTL" validate:"gte=0"`
	Redis   cache.RedisConfig `toml:"redis" envPrefix:"REDIS_"`
}

// EditorConfig holds the parameters of interactive edits.
type EditorConfig struct {
	// SnapThreshold is the snap distance in canvas units; negative
	// disables snapping.
	SnapThreshold float64       `toml:"snap_threshold" env:"SNAP_THRESHOLD"`
	StageWidth    float64       `toml:"stage_width" env:"STAGE_WIDTH" validate:"gt=0"`
	StageHeight   float64       `toml:"stage_height" env:"STAGE_HEIGHT" validate:"gt=0"`
	AutosaveDelay time.Duration `toml:"autosave_delay" env:"AUTOSAVE_DELAY" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    4 << 20,
		},
		Store: StoreConfig{
			Backend: StoreFile,
			Mongo: session.MongoConfig{
				URI:      "mongodb://localhost:27017",
				Database: "choirstage",
			},
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			TTL:     cache.TTLLayout,
			Redis:   cache.RedisConfig{Addr: cache.DefaultRedisAddr, Prefix: cache.DefaultRedisPrefix},
		},
		Editor: EditorConfig{
			SnapThreshold: snap.DefaultThreshold,
			StageWidth:    1000,
			StageHeight:   600,
			AutosaveDelay: session.DefaultAutosaveDelay,
		},
	}
}

// DefaultPath returns ~/.config/choirstage/config.toml, or the platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "choirstage", "config.toml"), nil
}

// Load builds the configuration. An explicit path must exist; with an empty
// path the default file is read only if present. envFiles that do not exist
// are skipped.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := loadEnvFiles(envFiles); err != nil {
		return cfg, err
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadEnvFiles loads the existing files among envFiles. Variables already
// set in the process environment are kept.
func loadEnvFiles(envFiles []string) error {
	existing := make([]string, 0, len(envFiles))
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store.Backend == StoreMongo && c.Store.Mongo.URI == "" {
		return fmt.Errorf("invalid config: store.mongo.uri is required for the mongo backend")
	}
	return nil
}
