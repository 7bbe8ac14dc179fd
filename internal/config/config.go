package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"dictionary/app/internal/dictionary"
	"dictionary/app/internal/lookup"
)

// Config holds runtime configuration values for the dictionary server.
type Config struct {
	ServerPort     int
	LogLevel       string
	Environment    string
	SentryDSN      string
	DBPath         string
	DictionaryURL  string
	LookupTimeout  time.Duration
	SearchOrdering lookup.Ordering
	RateLimit      RateLimit
	SessionTTL     time.Duration
	HistoryLimit   int
	ShutdownGrace  time.Duration
}

// RateLimit configures the per-client token bucket guarding upstream lookups.
type RateLimit struct {
	Burst             int
	RequestsPerSecond float64
	ClientTTL         time.Duration
}

const (
	defaultServerPort    = 8080
	defaultLogLevel      = "info"
	defaultEnvironment   = "development"
	defaultDBPath        = "./data/dictionary.db"
	defaultRateBurst     = 10
	defaultRatePerSecond = 2.0
	defaultRateClientTTL = 10 * time.Minute
	defaultSessionTTL    = 30 * time.Minute
	defaultHistoryLimit  = 5
	defaultShutdownGrace = 10 * time.Second
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		Environment:   getEnv("ENV", defaultEnvironment),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		DictionaryURL: getEnv("DICTIONARY_BASE_URL", dictionary.DefaultBaseURL),
		ShutdownGrace: defaultShutdownGrace,
	}

	var err error

	if cfg.ServerPort, err = intEnv("SERVER_PORT", defaultServerPort); err != nil {
		return nil, err
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, eris.Errorf("SERVER_PORT out of range: %d", cfg.ServerPort)
	}

	if cfg.LookupTimeout, err = durationEnv("DICTIONARY_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.LookupTimeout < 0 {
		return nil, eris.New("DICTIONARY_TIMEOUT must not be negative")
	}

	if cfg.SearchOrdering, err = lookup.ParseOrdering(os.Getenv("SEARCH_ORDERING")); err != nil {
		return nil, eris.Wrap(err, "parsing SEARCH_ORDERING")
	}

	if cfg.RateLimit.Burst, err = intEnv("RATE_LIMIT_BURST", defaultRateBurst); err != nil {
		return nil, err
	}
	if cfg.RateLimit.RequestsPerSecond, err = floatEnv("RATE_LIMIT_RPS", defaultRatePerSecond); err != nil {
		return nil, err
	}
	if cfg.RateLimit.ClientTTL, err = durationEnv("RATE_LIMIT_CLIENT_TTL", defaultRateClientTTL); err != nil {
		return nil, err
	}

	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", defaultSessionTTL); err != nil {
		return nil, err
	}
	if cfg.SessionTTL <= 0 {
		return nil, eris.New("SESSION_TTL must be positive")
	}

	if cfg.HistoryLimit, err = intEnv("HISTORY_LIMIT", defaultHistoryLimit); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}
