// Package config loads and validates application configuration from environment variables.
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
)

// Event bus backends accepted by EVENT_BUS.
const (
	EventBusMemory   = "memory"
	EventBusRabbitMQ = "rabbitmq"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// ORSAPIKey enables the OpenRouteService geo provider. When empty the
	// server falls back to straight-line estimates.
	ORSAPIKey  string
	ORSBaseURL string

	// RedisURL enables the route and geocode cache, e.g. redis://localhost:6379/0.
	RedisURL      string
	RouteCacheTTL time.Duration

	// EventBus selects where domain events go: "memory" or "rabbitmq".
	EventBus    string
	RabbitMQURL string

	// DefaultCurrency prices amounts sent without a currency. Defaults to "CNY".
	DefaultCurrency string

	// DefaultTransportMode forces a mode for every computed leg. "auto"
	// (the default) picks one by distance.
	DefaultTransportMode string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is loaded first when present; real
// environment variables win over it.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Config{
		Port:                 getEnv("PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		CORSOrigins:          splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		ORSAPIKey:            os.Getenv("ORS_API_KEY"),
		ORSBaseURL:           os.Getenv("ORS_BASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		EventBus:             strings.ToLower(getEnv("EVENT_BUS", EventBusMemory)),
		RabbitMQURL:          os.Getenv("RABBITMQ_URL"),
		DefaultCurrency:      strings.ToUpper(getEnv("DEFAULT_CURRENCY", "CNY")),
		DefaultTransportMode: strings.ToLower(getEnv("DEFAULT_TRANSPORT_MODE", "auto")),
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	ttl, err := time.ParseDuration(getEnv("ROUTE_CACHE_TTL", "24h"))
	if err != nil || ttl <= 0 {
		invalid = append(invalid, "ROUTE_CACHE_TTL")
	}
	cfg.RouteCacheTTL = ttl

	maxBody, err := strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || maxBody <= 0 {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}
	cfg.MaxBodyBytes = maxBody

	switch cfg.EventBus {
	case EventBusMemory:
	case EventBusRabbitMQ:
		if cfg.RabbitMQURL == "" {
			missing = append(missing, "RABBITMQ_URL")
		}
	default:
		invalid = append(invalid, "EVENT_BUS")
	}

	if len(cfg.DefaultCurrency) != 3 {
		invalid = append(invalid, "DEFAULT_CURRENCY")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
