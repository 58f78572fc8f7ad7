// Package config contains everything related to configuration.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/pacewatch-tui/internal/logger"
)

// Config holds the application configuration. Every field has a default;
// malformed values fall back per-field and never abort startup.
type Config struct {
	DatabasePath    string
	StatePath       string
	CredentialsPath string
	LogPath         string
	APIBaseURL      string

	PollInterval time.Duration

	// ActiveHoursPerDay is indexed by time.Weekday (0 = Sunday) and seeds
	// the schedule until auto-detection takes over.
	ActiveHoursPerDay [7]float64
	ActiveStartHour   float64

	// DayBoundaryHour is the fixed local hour at which a new "day" begins
	// for the daily deviation signal.
	DayBoundaryHour int

	// FallbackSessionsPerDay is used only when no expected sessions-per-day
	// value can be derived from history. Distinct from any derived average.
	FallbackSessionsPerDay float64
}

const (
	defaultPollInterval           = 300 * time.Second
	defaultActiveHours            = 10.0
	defaultActiveStartHour        = 10.0
	defaultDayBoundaryHour        = 4
	defaultFallbackSessionsPerDay = 2.0
	defaultAPIBaseURL             = "https://api.anthropic.com"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	for _, path := range envPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DatabasePath:           envString("PACEWATCH_DATABASE_PATH", defaultDataPath("history.db")),
		StatePath:              envString("PACEWATCH_STATE_PATH", defaultDataPath("engine-state.json")),
		CredentialsPath:        envString("PACEWATCH_CREDENTIALS_PATH", defaultCredentialsPath()),
		LogPath:                envString("PACEWATCH_LOG_PATH", defaultDataPath("pacewatch.log")),
		APIBaseURL:             envString("PACEWATCH_API_BASE_URL", defaultAPIBaseURL),
		PollInterval:           envSeconds("PACEWATCH_POLL_INTERVAL", defaultPollInterval),
		ActiveHoursPerDay:      envHoursPerDay("PACEWATCH_ACTIVE_HOURS"),
		ActiveStartHour:        envFloat("PACEWATCH_ACTIVE_START_HOUR", defaultActiveStartHour, 0, 24),
		DayBoundaryHour:        envHour("PACEWATCH_DAY_BOUNDARY_HOUR", defaultDayBoundaryHour),
		FallbackSessionsPerDay: envFloat("PACEWATCH_FALLBACK_SESSIONS_PER_DAY", defaultFallbackSessionsPerDay, 0.1, 48),
	}

	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.StatePath)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envPaths returns the candidate .env locations, most specific first.
func envPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "pacewatch", ".env"),
			filepath.Join(home, ".pacewatch", ".env"),
		)
	}
	return paths
}

func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", "pacewatch", name)
}

func defaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".credentials.json"
	}
	return filepath.Join(home, ".claude", ".credentials.json")
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envSeconds parses a duration ("5m", "300s") or a bare seconds count.
func envSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	logger.Warn("invalid duration, using default", "key", key, "value", v)
	return fallback
}

func envFloat(key string, fallback, lo, hi float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < lo || f > hi {
		logger.Warn("invalid number, using default", "key", key, "value", v)
		return fallback
	}
	return f
}

func envHour(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	h, err := strconv.Atoi(v)
	if err != nil || h < 0 || h > 23 {
		logger.Warn("invalid hour, using default", "key", key, "value", v)
		return fallback
	}
	return h
}

// envHoursPerDay parses a comma-separated list of 7 per-weekday active-hour
// counts (Sunday first). Any malformed entry falls back to the default for
// that day only.
func envHoursPerDay(key string) [7]float64 {
	var hours [7]float64
	for i := range hours {
		hours[i] = defaultActiveHours
	}

	v := os.Getenv(key)
	if v == "" {
		return hours
	}
	parts := strings.Split(v, ",")
	for i := 0; i < len(parts) && i < 7; i++ {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil || f < 0 || f > 24 {
			logger.Warn("invalid active hours entry, using default", "key", key, "index", i, "value", parts[i])
			continue
		}
		hours[i] = f
	}
	return hours
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
