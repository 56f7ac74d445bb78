package config

import (
	"os"
	"strconv"
	"time"
)

const (
	autosaveScheduleEnv = "AUTOSAVE_SCHEDULE"
	autosaveDisabledEnv = "AUTOSAVE_DISABLED"
	autosaveTimeoutEnv  = "AUTOSAVE_TIMEOUT_SECONDS"
	autosaveTimezoneEnv = "AUTOSAVE_TIMEZONE"

	defaultAutosaveSchedule = "@every 10m"
	defaultAutosaveTimeout  = 2 * time.Minute
)

type AutosaveConfig struct {
	Enabled  bool
	Schedule string
	Timeout  time.Duration
	// Location is the zone cron expressions are evaluated in.
	Location *time.Location
}

func LoadAutosaveConfig() (*AutosaveConfig, error) {
	disabled := false
	if raw := os.Getenv(autosaveDisabledEnv); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, ErrInvalidAutosaveFlag
		}
		disabled = parsed
	}

	timeout := defaultAutosaveTimeout
	if raw := os.Getenv(autosaveTimeoutEnv); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidAutosaveTimeout
		}
		timeout = time.Duration(parsed) * time.Second
	}

	loc := time.Local
	if raw := os.Getenv(autosaveTimezoneEnv); raw != "" {
		parsed, err := time.LoadLocation(raw)
		if err != nil {
			return nil, ErrInvalidAutosaveTimezone
		}
		loc = parsed
	}

	return &AutosaveConfig{
		Enabled:  !disabled,
		Schedule: envOr(autosaveScheduleEnv, defaultAutosaveSchedule),
		Timeout:  timeout,
		Location: loc,
	}, nil
}
