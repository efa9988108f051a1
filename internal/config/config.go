// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App         AppConfig         `koanf:"app"`
	API         APIConfig         `koanf:"api"`
	Storage     StorageConfig     `koanf:"storage"`
	Session     SessionConfig     `koanf:"session"`
	Initializer InitializerConfig `koanf:"initializer"`
	Tour        TourConfig        `koanf:"tour"`
	Log         LogConfig         `koanf:"log"`
	Otel        OtelConfig        `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type APIConfig struct {
	BaseURL           string        `koanf:"base_url"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
}

const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

type StorageConfig struct {
	Driver     string `koanf:"driver"`
	Path       string `koanf:"path"`
	Passphrase string `koanf:"passphrase"`
	RedisURL   string `koanf:"redis_url"`
	KeyPrefix  string `koanf:"key_prefix"`
	PoolSize   int    `koanf:"pool_size"`
}

type SessionConfig struct {
	DemoMode bool `koanf:"demo_mode"`
}

type InitializerConfig struct {
	MaxAttempts int           `koanf:"max_attempts"`
	Backoff     time.Duration `koanf:"backoff"`
}

type TourConfig struct {
	Enabled     bool          `koanf:"enabled"`
	SettleDelay time.Duration `koanf:"settle_delay"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// Load reads defaults, then the optional YAML file, then the environment.
// Later sources win.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "venuedesk",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"api.base_url":            "http://localhost:8000/api",
		"api.timeout":             "15s",
		"api.requests_per_second": 10.0,
		"api.burst":               20,

		"storage.driver":     StorageFile,
		"storage.path":       ".venuedesk/session.json",
		"storage.key_prefix": "venuedesk:",
		"storage.pool_size":  4,

		"session.demo_mode": false,

		"initializer.max_attempts": 3,
		"initializer.backoff":      "2s",

		"tour.enabled":      true,
		"tour.settle_delay": "500ms",

		"log.level":  "info",
		"log.format": "text",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  1.0,
		"otel.service_name": "venuedesk",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"VENUEDESK_ENV":                "app.environment",
	"VENUEDESK_API_URL":            "api.base_url",
	"VENUEDESK_API_TIMEOUT":        "api.timeout",
	"VENUEDESK_API_RPS":            "api.requests_per_second",
	"VENUEDESK_STORAGE_DRIVER":     "storage.driver",
	"VENUEDESK_STORAGE_PATH":       "storage.path",
	"VENUEDESK_STORAGE_PASSPHRASE": "storage.passphrase",
	"VENUEDESK_DEMO_MODE":          "session.demo_mode",
	"VENUEDESK_INIT_MAX_ATTEMPTS":  "initializer.max_attempts",
	"VENUEDESK_INIT_BACKOFF":       "initializer.backoff",
	"VENUEDESK_TOUR_ENABLED":       "tour.enabled",
	"REDIS_URL":                    "storage.redis_url",
	"LOG_LEVEL":                    "log.level",
	"LOG_FORMAT":                   "log.format",
	"OTEL_ENDPOINT":                "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT":  "otel.endpoint",
	"OTEL_SERVICE_NAME":            "otel.service_name",
	"OTEL_ENABLED":                 "otel.enabled",
	"OTEL_INSECURE":                "otel.insecure",
	"OTEL_SAMPLE_RATE":             "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL")
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the file driver")
		}
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	if c.Initializer.MaxAttempts < 1 {
		return fmt.Errorf("initializer.max_attempts must be at least 1")
	}

	if c.Initializer.Backoff <= 0 {
		return fmt.Errorf("initializer.backoff must be positive")
	}

	if c.Tour.SettleDelay < 0 {
		return fmt.Errorf("tour.settle_delay must not be negative")
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if u.Scheme != "https" {
			return fmt.Errorf("api.base_url must use https in production")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
