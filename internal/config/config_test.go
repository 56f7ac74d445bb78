package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "PERSIST_TIMEOUT_SECONDS",
		redisAddrEnv, redisPasswordEnv, redisDBEnv, redisTLSEnv,
		tripIDEnv, tripTitleEnv, tripStartDateEnv, tripEndDateEnv,
		tripWakeupTimeEnv, tripSleepTimeEnv, tripConfigPathEnv,
		autosaveScheduleEnv, autosaveDisabledEnv, autosaveTimeoutEnv, autosaveTimezoneEnv,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Errorf("Port: got %q, want %q", cfg.Port, defaultPort)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: got %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
	if cfg.PersistTimeout != 10*time.Second {
		t.Errorf("PersistTimeout: got %v, want 10s", cfg.PersistTimeout)
	}
	if cfg.Redis.Addr != defaultRedisAddr {
		t.Errorf("Redis.Addr: got %q, want %q", cfg.Redis.Addr, defaultRedisAddr)
	}
	if cfg.Trip.ID != defaultTripID || cfg.Trip.WakeupTime != defaultWakeupTime {
		t.Errorf("unexpected trip %+v", cfg.Trip)
	}
	if !cfg.Autosave.Enabled || cfg.Autosave.Schedule != defaultAutosaveSchedule {
		t.Errorf("unexpected autosave %+v", cfg.Autosave)
	}
	if cfg.Autosave.Timeout != defaultAutosaveTimeout || cfg.Autosave.Location != time.Local {
		t.Errorf("unexpected autosave timeout/location %v/%v", cfg.Autosave.Timeout, cfg.Autosave.Location)
	}
	if err := ValidateForRun(cfg); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PERSIST_TIMEOUT_SECONDS", "3")
	t.Setenv(redisDBEnv, "2")
	t.Setenv(redisTLSEnv, "true")
	t.Setenv(tripIDEnv, "kyoto")
	t.Setenv(tripStartDateEnv, "2026-03-25")
	t.Setenv(tripEndDateEnv, "2026-03-28")
	t.Setenv(tripWakeupTimeEnv, "07:30")
	t.Setenv(autosaveDisabledEnv, "true")
	t.Setenv(autosaveScheduleEnv, "*/5 * * * *")
	t.Setenv(autosaveTimeoutEnv, "30")
	t.Setenv(autosaveTimezoneEnv, "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("unexpected port/level %q/%v", cfg.Port, cfg.LogLevel)
	}
	if cfg.PersistTimeout != 3*time.Second {
		t.Errorf("PersistTimeout: got %v, want 3s", cfg.PersistTimeout)
	}
	if cfg.Redis.DB != 2 || cfg.Redis.Options().TLSConfig == nil {
		t.Errorf("unexpected redis config %+v", cfg.Redis)
	}

	trip := cfg.Trip.ToDomain()
	if trip.ID != "kyoto" || len(trip.Days()) != 4 || trip.WakeupTime != "07:30" {
		t.Errorf("unexpected trip %+v", trip)
	}
	if cfg.Autosave.Enabled || cfg.Autosave.Schedule != "*/5 * * * *" {
		t.Errorf("unexpected autosave %+v", cfg.Autosave)
	}
	if cfg.Autosave.Timeout != 30*time.Second || cfg.Autosave.Location.String() != "UTC" {
		t.Errorf("unexpected autosave timeout/location %v/%v", cfg.Autosave.Timeout, cfg.Autosave.Location)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  error
	}{
		{name: "redis db", key: redisDBEnv, value: "one", want: ErrInvalidRedisDB},
		{name: "negative redis db", key: redisDBEnv, value: "-1", want: ErrInvalidRedisDB},
		{name: "persist timeout", key: "PERSIST_TIMEOUT_SECONDS", value: "0", want: ErrInvalidPersistTimeout},
		{name: "autosave flag", key: autosaveDisabledEnv, value: "maybe", want: ErrInvalidAutosaveFlag},
		{name: "autosave timeout", key: autosaveTimeoutEnv, value: "-5", want: ErrInvalidAutosaveTimeout},
		{name: "autosave timezone", key: autosaveTimezoneEnv, value: "Mars/Olympus", want: ErrInvalidAutosaveTimezone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTripFileOverridesEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "trip.yaml")
	content := `id: tokyo-2026
title: Tokyo in spring
start_date: "2026-03-25"
end_date: "2026-03-27"
wakeup_time: "08:00"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write trip file: %v", err)
	}

	t.Setenv(tripConfigPathEnv, path)
	t.Setenv(tripIDEnv, "from-env")
	t.Setenv(tripSleepTimeEnv, "21:30")

	cfg, err := LoadTripConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ID != "tokyo-2026" || cfg.Title != "Tokyo in spring" {
		t.Errorf("file values should win, got %+v", cfg)
	}
	if cfg.WakeupTime != "08:00" {
		t.Errorf("WakeupTime: got %q, want %q", cfg.WakeupTime, "08:00")
	}
	if cfg.SleepTime != "21:30" {
		t.Errorf("values missing from the file keep env, got %q", cfg.SleepTime)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestTripFileErrors(t *testing.T) {
	clearEnv(t)

	t.Run("missing file", func(t *testing.T) {
		t.Setenv(tripConfigPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))
		if _, err := LoadTripConfig(); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("got %v, want %v", err, os.ErrNotExist)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "trip.yaml")
		if err := os.WriteFile(path, []byte("id: [unterminated"), 0o600); err != nil {
			t.Fatalf("failed to write trip file: %v", err)
		}
		t.Setenv(tripConfigPathEnv, path)
		if _, err := LoadTripConfig(); !errors.Is(err, ErrInvalidTripFile) {
			t.Errorf("got %v, want %v", err, ErrInvalidTripFile)
		}
	})
}

func TestTripValidate(t *testing.T) {
	valid := TripConfig{ID: "t", WakeupTime: "09:00", SleepTime: "23:00"}

	tests := []struct {
		name   string
		modify func(c *TripConfig)
		want   error
	}{
		{name: "valid without dates", modify: func(c *TripConfig) {}, want: nil},
		{name: "missing id", modify: func(c *TripConfig) { c.ID = "" }, want: ErrTripIDMissing},
		{name: "bad wakeup", modify: func(c *TripConfig) { c.WakeupTime = "9am" }, want: ErrInvalidClockTime},
		{name: "only start date", modify: func(c *TripConfig) { c.StartDate = "2026-03-25" }, want: ErrTripDatesIncomplete},
		{name: "reversed dates", modify: func(c *TripConfig) {
			c.StartDate, c.EndDate = "2026-03-27", "2026-03-25"
		}, want: ErrTripDatesReversed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.modify(&c)

			err := c.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
