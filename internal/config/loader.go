package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/athena/internal/domain/review"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "athena.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if p := os.Getenv("ATHENA_CONFIG"); p != "" {
		path = p
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "ATHENA_PORT")
	setString(&cfg.Server.CORSOrigin, "ATHENA_CORS_ORIGIN")
	setString(&cfg.Logging.Level, "ATHENA_LOG_LEVEL")
	setString(&cfg.Logging.Service, "ATHENA_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "ATHENA_LOG_ASYNC")

	// Hotel
	setString(&cfg.Hotel.Name, "ATHENA_HOTEL_NAME")
	setInt64(&cfg.Hotel.AnnualMultiplier, "ATHENA_ANNUAL_MULTIPLIER")
	setString(&cfg.Hotel.ResponseTemplate, "ATHENA_RESPONSE_TEMPLATE")
	setInt(&cfg.Hotel.RecentAlertsLimit, "ATHENA_RECENT_ALERTS_LIMIT")
	setDuration(&cfg.Refresh.Interval, "ATHENA_REFRESH_INTERVAL")

	// Reputation
	setString(&cfg.Reputation.URL, "ATHENA_REPUTATION_URL")
	setString(&cfg.Reputation.APIKey, "ATHENA_REPUTATION_API_KEY")
	setDuration(&cfg.Reputation.Timeout, "ATHENA_REPUTATION_TIMEOUT")
	setInt(&cfg.Reputation.Retries, "ATHENA_REPUTATION_RETRIES")
	setInt(&cfg.Reputation.BreakerFails, "ATHENA_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Reputation.BreakerTimeout, "ATHENA_BREAKER_TIMEOUT")

	// Fan-out and telemetry
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.SubjectPrefix, "ATHENA_NATS_SUBJECT_PREFIX")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "OTEL_EXPORTER_OTLP_INSECURE")

	// Cache and rate limiting
	setInt64(&cfg.Cache.L1MaxSizeMB, "ATHENA_CACHE_L1_SIZE_MB")
	setDuration(&cfg.Cache.SnapshotTTL, "ATHENA_CACHE_SNAPSHOT_TTL")
	setFloat64(&cfg.Rate.RequestsPerSecond, "ATHENA_RATE_RPS")
	setInt(&cfg.Rate.Burst, "ATHENA_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "ATHENA_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "ATHENA_RATE_MAX_IDLE_TIME")
}

// templateCheckReview is rendered once at startup so a broken response
// template fails the boot instead of every draft request.
var templateCheckReview = review.Snapshot{
	Source:    "Booking.com",
	Rating:    5,
	GuestName: "Guest",
	Text:      "Lovely stay.",
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if len(cfg.Hotel.Departments) == 0 {
		return errors.New("hotel.departments must not be empty")
	}
	seen := make(map[string]bool, len(cfg.Hotel.Departments))
	for i, d := range cfg.Hotel.Departments {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("hotel.departments[%d].id is required", i)
		}
		if seen[d.ID] {
			return fmt.Errorf("hotel.departments[%d]: duplicate id %q", i, d.ID)
		}
		seen[d.ID] = true
		if len(d.Items) == 0 {
			return fmt.Errorf("hotel.departments[%d].items must not be empty", i)
		}
	}
	if cfg.Hotel.RecentAlertsLimit < 1 {
		return errors.New("hotel.recent_alerts_limit must be >= 1")
	}
	if _, err := review.Draft(templateCheckReview, cfg.Hotel.ResponseTemplate); err != nil {
		return fmt.Errorf("hotel.response_template: %w", err)
	}
	if cfg.Hotel.AnnualMultiplier < 1 {
		return errors.New("hotel.annual_multiplier must be >= 1")
	}
	if cfg.Refresh.Interval <= 0 {
		return errors.New("refresh.interval must be > 0")
	}
	if cfg.Reputation.BreakerFails < 1 {
		return errors.New("reputation.breaker_max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
