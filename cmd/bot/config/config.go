package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

type Config struct {
	APIToken       string
	DataDir        string
	StorageDriver  string
	DBPath         string
	CategoriesFile string
	Currency       string
	Timezone       string
	UpdateMode     string
	WebhookURL     string
	WebhookSecret  string
	Port           string
	PollTimeout    int
	Workers        int
	SessionTTL     time.Duration
	OtelEnabled    bool
	OtelEndpoint   string
	OtelInsecure   bool
	OtelService    string

	// parse errors are reported by Validate
	errs []error
}

// Load loads configuration from environment variables
// Automatically loads .env file if present
func Load() *Config {
	// Try to load .env file (fail silently if not present)
	_ = godotenv.Load()

	cfg := &Config{
		APIToken:       getEnv("API_TOKEN", ""),
		DataDir:        getEnv("DATA_DIR", "data"),
		StorageDriver:  getEnv("STORAGE_DRIVER", "sqlite"),
		DBPath:         getEnv("DB_PATH", ""),
		CategoriesFile: getEnv("CATEGORIES_FILE", ""),
		Currency:       getEnv("CURRENCY", "руб."),
		Timezone:       getEnv("TIMEZONE", "Local"),
		UpdateMode:     getEnv("UPDATE_MODE", ModePolling),
		WebhookURL:     getEnv("WEBHOOK_URL", ""),
		WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),
		Port:           getEnv("PORT", "8080"),
		OtelEndpoint:   getEnv("OTEL_ENDPOINT", ""),
		OtelService:    getEnv("OTEL_SERVICE_NAME", "finbot"),
	}

	cfg.PollTimeout = cfg.getInt("POLL_TIMEOUT", 30)
	cfg.Workers = cfg.getInt("WORKERS", 4)
	cfg.SessionTTL = cfg.getDuration("SESSION_TTL", 30*time.Minute)
	cfg.OtelEnabled = cfg.getBool("OTEL_ENABLED", false)
	cfg.OtelInsecure = cfg.getBool("OTEL_INSECURE", true)

	if cfg.DBPath == "" {
		name := "finance.db"
		if cfg.StorageDriver == "bolt" {
			name = "finance.bolt"
		}
		cfg.DBPath = filepath.Join(cfg.DataDir, name)
	}

	return cfg
}

// Validate reports every configuration problem at once
func (c *Config) Validate() error {
	errs := append([]error(nil), c.errs...)

	if c.APIToken == "" {
		errs = append(errs, errors.New("API_TOKEN is required"))
	}

	switch c.StorageDriver {
	case "sqlite", "bolt":
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be sqlite or bolt, got %q", c.StorageDriver))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}

	switch c.UpdateMode {
	case ModePolling:
	case ModeWebhook:
		if c.WebhookURL == "" {
			errs = append(errs, errors.New("WEBHOOK_URL is required in webhook mode"))
		} else if u, err := url.Parse(c.WebhookURL); err != nil || u.Scheme != "https" || u.Host == "" {
			errs = append(errs, fmt.Errorf("WEBHOOK_URL must be an absolute https URL, got %q", c.WebhookURL))
		}
		if c.WebhookSecret == "" {
			errs = append(errs, errors.New("WEBHOOK_SECRET is required in webhook mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("UPDATE_MODE must be polling or webhook, got %q", c.UpdateMode))
	}

	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a TCP port, got %q", c.Port))
	}
	if c.PollTimeout < 0 {
		errs = append(errs, errors.New("POLL_TIMEOUT must not be negative"))
	}
	if c.Workers < 1 {
		errs = append(errs, errors.New("WORKERS must be at least 1"))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, errors.New("SESSION_TTL must not be negative"))
	}
	if c.OtelEnabled && c.OtelEndpoint == "" {
		errs = append(errs, errors.New("OTEL_ENDPOINT is required when OTEL_ENABLED is true"))
	}

	return errors.Join(errs...)
}

// Location returns the configured time zone, falling back to the local one
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// WebhookEndpoint is the URL registered with Telegram
func (c *Config) WebhookEndpoint() string {
	u, err := url.Parse(c.WebhookURL)
	if err != nil {
		return c.WebhookURL
	}
	return u.JoinPath("telegram", c.WebhookSecret).String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return defaultValue
	}
	return n
}

func (c *Config) getBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return defaultValue
	}
	return b
}

func (c *Config) getDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return defaultValue
	}
	return d
}
