// Package config loads tradelab settings.
// Precedence (lowest first): defaults, YAML file, .env file, environment, CLI flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config is the full application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects and addresses the persistence backend.
// The postgres backend stores trades in Postgres and runs in ClickHouse.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// CacheConfig configures the Redis analysis cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	RedisAddr string        `yaml:"redis_addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	TTL       time.Duration `yaml:"ttl"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Backend: BackendMemory},
		Cache:   CacheConfig{TTL: 10 * time.Minute},
		HTTP:    HTTPConfig{Addr: ":8080", RequestTimeout: 5 * time.Second},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// Load builds a Config from defaults, the optional YAML file at path, the
// optional dotenv file at envFile and the process environment.
// A missing envFile is ignored; a missing YAML path is an error.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		// godotenv never overrides variables already set in the environment.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("TRADELAB_STORAGE", &c.Storage.Backend)
	str("POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("CLICKHOUSE_DSN", &c.Storage.ClickhouseDSN)
	str("TRADELAB_HTTP_ADDR", &c.HTTP.Addr)
	str("TRADELAB_LOG_LEVEL", &c.Log.Level)
	str("TRADELAB_LOG_FORMAT", &c.Log.Format)
	str("TRADELAB_REDIS_PASSWORD", &c.Cache.Password)

	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Enabled = true
	}
	if v, ok := lookup("TRADELAB_REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TRADELAB_REDIS_DB: %w", err)
		}
		c.Cache.DB = db
	}
	if v, ok := lookup("TRADELAB_CACHE_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TRADELAB_CACHE_TTL: %w", err)
		}
		c.Cache.TTL = ttl
	}
	if v, ok := lookup("TRADELAB_CACHE_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRADELAB_CACHE_ENABLED: %w", err)
		}
		c.Cache.Enabled = enabled
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var problems []string

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			problems = append(problems, "storage.postgres_dsn is required for the postgres backend")
		}
		if c.Storage.ClickhouseDSN == "" {
			problems = append(problems, "storage.clickhouse_dsn is required for the postgres backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage.backend %q must be %s or %s",
			c.Storage.Backend, BackendMemory, BackendPostgres))
	}

	if c.Cache.Enabled && c.Cache.RedisAddr == "" {
		problems = append(problems, "cache.redis_addr is required when the cache is enabled")
	}
	if c.Cache.TTL < 0 {
		problems = append(problems, "cache.ttl must not be negative")
	}
	if c.HTTP.Addr == "" {
		problems = append(problems, "http.addr is required")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be console or json", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
