package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort           = "8080"
	defaultPersistTimeout = 10 * time.Second
)

type Config struct {
	Port           string
	LogLevel       slog.Level
	PersistTimeout time.Duration
	Redis          *RedisConfig
	Trip           *TripConfig
	Autosave       *AutosaveConfig
}

func Load() (*Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	persistTimeout := defaultPersistTimeout
	if v := os.Getenv("PERSIST_TIMEOUT_SECONDS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidPersistTimeout
		}
		persistTimeout = time.Duration(parsed) * time.Second
	}

	redisConfig, err := LoadRedisConfig()
	if err != nil {
		return nil, err
	}

	tripConfig, err := LoadTripConfig()
	if err != nil {
		return nil, err
	}

	autosaveConfig, err := LoadAutosaveConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:           port,
		LogLevel:       parseLogLevel(os.Getenv("LOG_LEVEL")),
		PersistTimeout: persistTimeout,
		Redis:          redisConfig,
		Trip:           tripConfig,
		Autosave:       autosaveConfig,
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
