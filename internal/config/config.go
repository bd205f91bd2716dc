// Package config provides hierarchical configuration loading for Athena.
// Precedence: defaults < YAML file < environment variables.
package config

import (
	"time"

	"github.com/Strob0t/athena/internal/domain/booking"
	"github.com/Strob0t/athena/internal/domain/checklist"
	"github.com/Strob0t/athena/internal/domain/revenue"
	"github.com/Strob0t/athena/internal/domain/review"
)

// Config holds all runtime configuration for the Athena operations hub.
type Config struct {
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
	Hotel      Hotel      `yaml:"hotel"`
	Refresh    Refresh    `yaml:"refresh"`
	Reputation Reputation `yaml:"reputation"`
	NATS       NATS       `yaml:"nats"`
	OTEL       OTEL       `yaml:"otel"`
	Cache      Cache      `yaml:"cache"`
	Rate       Rate       `yaml:"rate"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Department declares one department and its readiness checklist.
type Department struct {
	ID    string   `yaml:"id"`
	Label string   `yaml:"label"`
	Items []string `yaml:"items"`
}

// Hotel holds the operational model of the property.
type Hotel struct {
	Name              string            `yaml:"name"`
	Group             []string          `yaml:"group"`
	Departments       []Department      `yaml:"departments"`
	AnnualMultiplier  int64             `yaml:"annual_multiplier"`
	ResponseTemplate  string            `yaml:"response_template"`
	Bookings          []booking.Booking `yaml:"bookings"`
	RecentAlertsLimit int               `yaml:"recent_alerts_limit"`
}

// Refresh holds the viewer polling cadence.
type Refresh struct {
	Interval time.Duration `yaml:"interval"`
}

// Reputation holds the review source configuration. An empty URL selects the
// built-in simulated source.
type Reputation struct {
	URL            string        `yaml:"url"`
	APIKey         string        `yaml:"api_key"`
	Timeout        time.Duration `yaml:"timeout"`
	Retries        int           `yaml:"retries"`
	BreakerFails   int           `yaml:"breaker_max_failures"`
	BreakerTimeout time.Duration `yaml:"breaker_timeout"`
}

// NATS holds the optional event fan-out connection. Empty URL disables it.
type NATS struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// OTEL holds the optional OTLP collector endpoint. Empty endpoint disables export.
type OTEL struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// Cache holds the dashboard snapshot cache configuration.
type Cache struct {
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
}

// Rate holds rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// Defaults returns a Config with sensible default values for a single property.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Logging: Logging{
			Level:   "info",
			Service: "athena-hub",
		},
		Hotel: Hotel{
			Name:  "CHC Galini Sea View",
			Group: []string{"CHC Galini Sea View", "CHC Athina Palace", "CHC Royal Palace", "CHC Sea Side"},
			Departments: []Department{
				{ID: "pool_bar", Label: "POOL BAR", Items: append([]string(nil), checklist.DefaultItems...)},
			},
			AnnualMultiplier:  revenue.DefaultAnnualMultiplier,
			ResponseTemplate:  review.DefaultResponseTemplate,
			Bookings:          booking.DefaultBookings(),
			RecentAlertsLimit: 50,
		},
		Refresh: Refresh{
			Interval: 2 * time.Second,
		},
		Reputation: Reputation{
			Timeout:        10 * time.Second,
			Retries:        2,
			BreakerFails:   5,
			BreakerTimeout: 30 * time.Second,
		},
		NATS: NATS{
			SubjectPrefix: "athena",
		},
		Cache: Cache{
			L1MaxSizeMB: 16,
			SnapshotTTL: time.Minute,
		},
		Rate: Rate{
			RequestsPerSecond: 20,
			Burst:             100,
			CleanupInterval:   5 * time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
	}
}
