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

	// MigrateOnStart applies the embedded migrations before serving.
	MigrateOnStart bool

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	Oracle   OracleConfig
	GeoCache GeoCacheConfig
}

// OracleConfig points at the OpenStreetMap services.
type OracleConfig struct {
	OSRMBaseURL      string
	NominatimBaseURL string
	OverpassBaseURL  string

	// Timeout applies to routing and Overpass calls; GeocodeTimeout to Nominatim.
	Timeout        time.Duration
	GeocodeTimeout time.Duration

	// NominatimRatePerSec is the outbound request budget. The public instance
	// allows one request per second.
	NominatimRatePerSec float64
	NominatimUserAgent  string
}

// GeoCacheConfig selects the oracle response cache backend.
type GeoCacheConfig struct {
	TTL time.Duration

	// SQLitePath persists the cache in a SQLite file. Empty keeps it in memory.
	SQLitePath string
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory, if present, is read first; variables
// already set in the environment win.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config.Load: read .env: %w", err)
	}

	p := &parser{}
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		MigrateOnStart: p.bool("MIGRATE_ON_START", false),
		MaxBodyBytes:   p.int64("MAX_BODY_BYTES", 1<<20),
		Oracle: OracleConfig{
			OSRMBaseURL:         getEnv("OSRM_BASE_URL", "https://router.project-osrm.org"),
			NominatimBaseURL:    getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
			OverpassBaseURL:     getEnv("OVERPASS_BASE_URL", "https://overpass-api.de/api"),
			Timeout:             p.duration("ORACLE_TIMEOUT", 30*time.Second),
			GeocodeTimeout:      p.duration("GEOCODE_TIMEOUT", 10*time.Second),
			NominatimRatePerSec: p.float("NOMINATIM_RATE_PER_SEC", 1),
			NominatimUserAgent:  getEnv("NOMINATIM_USER_AGENT", "PlanificateApp/1.0"),
		},
		GeoCache: GeoCacheConfig{
			TTL:        p.duration("GEOCACHE_TTL", time.Hour),
			SQLitePath: os.Getenv("GEOCACHE_SQLITE_PATH"),
		},
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(p.invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(p.invalid, ", "))
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

// parser reads typed variables, collecting the names of unparsable ones so
// Load can report them all at once.
type parser struct {
	invalid []string
}

func (p *parser) bool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return b
}

func (p *parser) int64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return f
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return d
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
