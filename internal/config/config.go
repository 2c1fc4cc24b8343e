// Package config provides configuration management for the coreference
// resolver. It loads settings from environment variables with the COREF_
// prefix, optionally on top of a YAML file, and provides sensible defaults
// for all configuration options.
//
// Precedence, lowest first: defaults, YAML file, environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Gazetteer backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all configuration settings for the resolver and its services.
type Config struct {
	Resolver  ResolverConfig  `yaml:"resolver"`
	Lexicon   LexiconConfig   `yaml:"lexicon"`
	Gazetteer GazetteerConfig `yaml:"gazetteer"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ResolverConfig selects the sieve stages.
type ResolverConfig struct {
	PronounResolution  bool   `yaml:"pronoun_resolution"`                           // Run the pronoun resolution sieve (default: true)
	MaxPronounDistance int    `yaml:"max_pronoun_distance" validate:"gte=1,lte=50"` // Sentences a pronoun may look back (default: 3)
	SinglePass         string `yaml:"single_pass"`                                  // Run only the named sieve (default: all)
}

// LexiconConfig points at optional lexicon overrides.
type LexiconConfig struct {
	Path string `yaml:"path"` // YAML file overlaid on the embedded tables (default: none)
}

// GazetteerConfig configures gender and number lookups.
type GazetteerConfig struct {
	Backend        string        `yaml:"backend" validate:"oneof=memory sqlite postgres"` // memory, sqlite, postgres (default: memory)
	DSN            string        `yaml:"dsn"`                                             // Database path or connection string
	CacheSize      int           `yaml:"cache_size" validate:"gte=0"`                     // LRU entries, 0 disables caching (default: 4096)
	MaxFailures    int           `yaml:"max_failures" validate:"gte=1"`                   // Consecutive failures tripping the breaker (default: 5)
	BreakerTimeout time.Duration `yaml:"breaker_timeout"`                                 // Open-state duration (default: 30s)
	LookupTimeout  time.Duration `yaml:"lookup_timeout"`                                  // Per-lookup deadline (default: 200ms)
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port      int     `yaml:"port" validate:"gte=1,lte=65535"` // Server port (default: 6464)
	Host      string  `yaml:"host"`                            // Server host (default: 127.0.0.1)
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`     // Requests per second per client, 0 disables (default: 20)
	RateBurst int     `yaml:"rate_burst" validate:"gte=0"`     // Burst size (default: 40)
	APIToken  string  `yaml:"api_token"`                       // Bearer token required on /api when set
	MaxBodyMB int     `yaml:"max_body_mb" validate:"gte=1"`    // Largest accepted document (default: 8)
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"` // debug, info, warn, error (default: info)
	Format     string `yaml:"format" validate:"oneof=text json"`            // text or json (default: text)
	File       string `yaml:"file"`                                         // Rotated log file, empty for stderr
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`                 // Rotation size (default: 50)
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`                 // Rotated files kept (default: 3)
}

// WatchConfig configures the document directory watcher.
type WatchConfig struct {
	Dir      string        `yaml:"dir"`      // Directory to watch (default: ./inbox)
	Debounce time.Duration `yaml:"debounce"` // Quiet period before a file is read (default: 250ms)
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Resolver: ResolverConfig{
			PronounResolution:  true,
			MaxPronounDistance: 3,
		},
		Gazetteer: GazetteerConfig{
			Backend:        BackendMemory,
			CacheSize:      4096,
			MaxFailures:    5,
			BreakerTimeout: 30 * time.Second,
			LookupTimeout:  200 * time.Millisecond,
		},
		Server: ServerConfig{
			Port:      6464,
			Host:      "127.0.0.1",
			RateLimit: 20,
			RateBurst: 40,
			MaxBodyMB: 8,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
		Watch: WatchConfig{
			Dir:      "./inbox",
			Debounce: 250 * time.Millisecond,
		},
	}
}

// LoadConfig loads configuration from environment variables with sensible defaults.
// All environment variables use the COREF_ prefix.
func LoadConfig() (*Config, error) {
	cfg := Defaults()
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile loads a YAML file over the defaults, then applies
// environment overrides.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Gazetteer.Backend != BackendMemory && c.Gazetteer.DSN == "" {
		return fmt.Errorf("%w: gazetteer backend %q requires a dsn", ErrInvalidConfig, c.Gazetteer.Backend)
	}
	return nil
}

// applyEnv overrides cfg with any COREF_ variable that is set.
func applyEnv(cfg *Config) {
	cfg.Resolver.PronounResolution = getEnvBool("COREF_PRONOUN_RESOLUTION", cfg.Resolver.PronounResolution)
	cfg.Resolver.MaxPronounDistance = getEnvInt("COREF_MAX_PRONOUN_DISTANCE", cfg.Resolver.MaxPronounDistance)
	cfg.Resolver.SinglePass = getEnv("COREF_SINGLE_PASS", cfg.Resolver.SinglePass)

	cfg.Lexicon.Path = getEnv("COREF_LEXICON_PATH", cfg.Lexicon.Path)

	cfg.Gazetteer.Backend = getEnv("COREF_GAZETTEER_BACKEND", cfg.Gazetteer.Backend)
	cfg.Gazetteer.DSN = getEnv("COREF_GAZETTEER_DSN", cfg.Gazetteer.DSN)
	cfg.Gazetteer.CacheSize = getEnvInt("COREF_GAZETTEER_CACHE_SIZE", cfg.Gazetteer.CacheSize)
	cfg.Gazetteer.MaxFailures = getEnvInt("COREF_GAZETTEER_MAX_FAILURES", cfg.Gazetteer.MaxFailures)
	cfg.Gazetteer.BreakerTimeout = getEnvDuration("COREF_GAZETTEER_BREAKER_TIMEOUT", cfg.Gazetteer.BreakerTimeout)
	cfg.Gazetteer.LookupTimeout = getEnvDuration("COREF_GAZETTEER_LOOKUP_TIMEOUT", cfg.Gazetteer.LookupTimeout)

	cfg.Server.Port = getEnvInt("COREF_PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("COREF_HOST", cfg.Server.Host)
	cfg.Server.RateLimit = getEnvFloat("COREF_RATE_LIMIT", cfg.Server.RateLimit)
	cfg.Server.RateBurst = getEnvInt("COREF_RATE_BURST", cfg.Server.RateBurst)
	cfg.Server.APIToken = getEnv("COREF_API_TOKEN", cfg.Server.APIToken)
	cfg.Server.MaxBodyMB = getEnvInt("COREF_MAX_BODY_MB", cfg.Server.MaxBodyMB)

	cfg.Logging.Level = getEnv("COREF_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("COREF_LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.File = getEnv("COREF_LOG_FILE", cfg.Logging.File)
	cfg.Logging.MaxSizeMB = getEnvInt("COREF_LOG_MAX_SIZE_MB", cfg.Logging.MaxSizeMB)
	cfg.Logging.MaxBackups = getEnvInt("COREF_LOG_MAX_BACKUPS", cfg.Logging.MaxBackups)

	cfg.Watch.Dir = getEnv("COREF_WATCH_DIR", cfg.Watch.Dir)
	cfg.Watch.Debounce = getEnvDuration("COREF_WATCH_DEBOUNCE", cfg.Watch.Debounce)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration ("250ms", "30s") or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false (case-insensitive).
// If the environment variable exists but cannot be parsed as a boolean,
// it returns the default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
