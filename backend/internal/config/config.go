package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Limits    LimitsConfig    `yaml:"limits"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Policy    PolicyConfig    `yaml:"policy"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	MaxRequestSize  int64         `yaml:"max_request_size"`
	CORSAllowOrigin string        `yaml:"cors_allow_origin"`
}

// LimitsConfig bounds what a single analysis may consume
type LimitsConfig struct {
	MaxInputBytes int `yaml:"max_input_bytes"`
}

// RateLimitConfig holds request rate settings
type RateLimitConfig struct {
	Enabled   bool   `yaml:"enabled"`
	PerMinute int    `yaml:"per_minute"`
	PerHour   int    `yaml:"per_hour"`
	KeyBy     string `yaml:"key_by"` // global, ip
}

// CacheConfig holds result cache settings
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	MaxEntries int           `yaml:"max_entries"`
	TTL        time.Duration `yaml:"ttl"`
}

// PolicyConfig holds admission policy settings
type PolicyConfig struct {
	Path         string `yaml:"path"` // empty = built-in default
	WatchChanges bool   `yaml:"watch_changes"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level     string `yaml:"level"` // debug, info, warn, error
	AuditFile string `yaml:"audit_file"`
}

// MetricsConfig holds metrics/monitoring settings
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Port     int    `yaml:"port"` // 0 = serve on the main listener only
	Endpoint string `yaml:"endpoint"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			MaxRequestSize:  2 * 1024 * 1024,
			CORSAllowOrigin: "*",
		},
		Limits: LimitsConfig{
			MaxInputBytes: 1024 * 1024,
		},
		RateLimit: RateLimitConfig{
			Enabled:   false,
			PerMinute: 60,
			PerHour:   1000,
			KeyBy:     "ip",
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 10000,
			TTL:        10 * time.Minute,
		},
		Policy: PolicyConfig{
			WatchChanges: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, then environment variables
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.MaxRequestSize = int64(getEnvInt("SERVER_MAX_REQUEST_SIZE", int(c.Server.MaxRequestSize)))
	c.Server.CORSAllowOrigin = getEnv("CORS_ALLOW_ORIGIN", c.Server.CORSAllowOrigin)

	c.Limits.MaxInputBytes = getEnvInt("MAX_INPUT_BYTES", c.Limits.MaxInputBytes)

	c.RateLimit.Enabled = getEnvBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.PerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimit.PerMinute)
	c.RateLimit.PerHour = getEnvInt("RATE_LIMIT_PER_HOUR", c.RateLimit.PerHour)
	c.RateLimit.KeyBy = getEnv("RATE_LIMIT_KEY_BY", c.RateLimit.KeyBy)

	c.Cache.Enabled = getEnvBool("CACHE_ENABLED", c.Cache.Enabled)
	c.Cache.MaxEntries = getEnvInt("CACHE_MAX_ENTRIES", c.Cache.MaxEntries)
	c.Cache.TTL = getEnvDuration("CACHE_TTL", c.Cache.TTL)

	c.Policy.Path = getEnv("POLICY_PATH", c.Policy.Path)
	c.Policy.WatchChanges = getEnvBool("POLICY_WATCH_CHANGES", c.Policy.WatchChanges)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.AuditFile = getEnv("AUDIT_LOG_FILE", c.Logging.AuditFile)

	c.Metrics.Enabled = getEnvBool("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Port = getEnvInt("METRICS_PORT", c.Metrics.Port)
	c.Metrics.Endpoint = getEnv("METRICS_ENDPOINT", c.Metrics.Endpoint)
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics port %d out of range", c.Metrics.Port)
	}
	if c.Server.MaxRequestSize <= 0 {
		return fmt.Errorf("max request size must be positive")
	}
	if c.Limits.MaxInputBytes <= 0 {
		return fmt.Errorf("max input bytes must be positive")
	}
	if c.RateLimit.PerMinute < 0 || c.RateLimit.PerHour < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	switch c.RateLimit.KeyBy {
	case "global", "ip":
	default:
		return fmt.Errorf("unknown rate limit key %q", c.RateLimit.KeyBy)
	}
	if c.Cache.MaxEntries < 0 || c.Cache.TTL < 0 {
		return fmt.Errorf("cache limits must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// Addr returns the listen address of the main server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Debug reports whether debug logging is on
func (c *Config) Debug() bool {
	return c.Logging.Level == "debug"
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
