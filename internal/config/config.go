package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/octobees/places-agent/internal/places"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values. The provider credential is not
// part of it: the places accessor reads it on first use.
type Config struct {
	Port            string
	LogLevel        string
	LogFormat       string
	PlacesProvider  string
	PlacesBaseURL   string
	PlacesTimeout   time.Duration
	RedisURL        string
	ProgressChannel string
	JWTSecret       string
	RateLimitSearch RateLimitConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8000"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "json")),
		PlacesProvider:  strings.ToLower(getEnv("PLACES_PROVIDER", places.ProviderTextSearch)),
		PlacesBaseURL:   getEnv("PLACES_BASE_URL", places.DefaultBaseURL),
		RedisURL:        os.Getenv("REDIS_URL"),
		ProgressChannel: getEnv("PROGRESS_CHANNEL", "search_progress"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
	}

	switch cfg.PlacesProvider {
	case places.ProviderTextSearch, places.ProviderPlacesV1:
	default:
		return nil, fmt.Errorf("invalid PLACES_PROVIDER value: %q", cfg.PlacesProvider)
	}

	timeout, err := time.ParseDuration(getEnv("PLACES_TIMEOUT", "10s"))
	if err != nil || timeout < 0 {
		return nil, fmt.Errorf("invalid PLACES_TIMEOUT value: %q", os.Getenv("PLACES_TIMEOUT"))
	}
	cfg.PlacesTimeout = timeout

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_SEARCH", "30/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SEARCH value: %w", err)
	}
	cfg.RateLimitSearch = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
