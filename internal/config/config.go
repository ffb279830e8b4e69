// Package config loads and validates daemon configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the map daemon.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8787".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// APIBaseURL is the travel diary backend root. Required.
	APIBaseURL string

	// APIToken is the bearer token for the backend. Optional: without it
	// every online call fails with a permission error and reads fall back to
	// the offline store.
	APIToken string

	// DataDir holds the SQLite database and the tile cache. Defaults to "./data".
	DataDir string

	// TileURLTemplate is the {z}/{x}/{y} tile source.
	TileURLTemplate string

	// TileUserAgent identifies the daemon to the tile server.
	TileUserAgent string

	// RequestTimeout bounds every backend request. Defaults to 30s.
	RequestTimeout time.Duration

	// ConnectivityProbeURL is polled to decide online/offline. Defaults to APIBaseURL.
	ConnectivityProbeURL string

	// ConnectivityInterval is the probe period. Defaults to 10s.
	ConnectivityInterval time.Duration

	// PrefetchWorkers bounds parallel tile downloads. Defaults to 4.
	PrefetchWorkers int

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:8081"] (Expo dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Defaults to 10 MiB.
	MaxBodyBytes int64
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set and any
// values that do not parse.
func Load() (Config, error) {
	cfg := Config{
		Port:            getEnv("PORT", "8787"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		APIToken:        os.Getenv("API_TOKEN"),
		DataDir:         getEnv("DATA_DIR", "./data"),
		TileURLTemplate: getEnv("TILE_URL_TEMPLATE", "https://tile.openstreetmap.org/{z}/{x}/{y}.png"),
		TileUserAgent:   getEnv("TILE_USER_AGENT", "travel-diary-mapd/1.0"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:8081")),
	}

	var missing, invalid []string

	cfg.APIBaseURL = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	if cfg.APIBaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}
	cfg.ConnectivityProbeURL = getEnv("CONNECTIVITY_PROBE_URL", cfg.APIBaseURL)

	var err error
	if cfg.RequestTimeout, err = time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s")); err != nil || cfg.RequestTimeout <= 0 {
		invalid = append(invalid, "REQUEST_TIMEOUT")
	}
	if cfg.ConnectivityInterval, err = time.ParseDuration(getEnv("CONNECTIVITY_INTERVAL", "10s")); err != nil || cfg.ConnectivityInterval <= 0 {
		invalid = append(invalid, "CONNECTIVITY_INTERVAL")
	}
	if cfg.PrefetchWorkers, err = strconv.Atoi(getEnv("PREFETCH_WORKERS", "4")); err != nil || cfg.PrefetchWorkers < 1 {
		invalid = append(invalid, "PREFETCH_WORKERS")
	}
	if cfg.MaxBodyBytes, err = strconv.ParseInt(getEnv("MAX_BODY_BYTES", "10485760"), 10, 64); err != nil || cfg.MaxBodyBytes < 1 {
		invalid = append(invalid, "MAX_BODY_BYTES")
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
