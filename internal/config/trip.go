package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KasumiMercury/primind-itinerary/internal/domain"
)

const (
	tripIDEnv         = "TRIP_ID"
	tripTitleEnv      = "TRIP_TITLE"
	tripStartDateEnv  = "TRIP_START_DATE"
	tripEndDateEnv    = "TRIP_END_DATE"
	tripWakeupTimeEnv = "WAKEUP_TIME"
	tripSleepTimeEnv  = "SLEEP_TIME"
	tripConfigPathEnv = "TRIP_CONFIG_PATH"

	defaultTripID     = "default"
	defaultTripTitle  = "My Trip"
	defaultWakeupTime = "09:00"
	defaultSleepTime  = "23:00"

	clockLayout = "15:04"
)

// TripConfig describes the trip being planned. Values from the YAML file
// named by TRIP_CONFIG_PATH override the environment.
type TripConfig struct {
	ID         string `yaml:"id"`
	Title      string `yaml:"title"`
	StartDate  string `yaml:"start_date"`
	EndDate    string `yaml:"end_date"`
	WakeupTime string `yaml:"wakeup_time"`
	SleepTime  string `yaml:"sleep_time"`
}

func LoadTripConfig() (*TripConfig, error) {
	cfg := &TripConfig{
		ID:         envOr(tripIDEnv, defaultTripID),
		Title:      envOr(tripTitleEnv, defaultTripTitle),
		StartDate:  os.Getenv(tripStartDateEnv),
		EndDate:    os.Getenv(tripEndDateEnv),
		WakeupTime: envOr(tripWakeupTimeEnv, defaultWakeupTime),
		SleepTime:  envOr(tripSleepTimeEnv, defaultSleepTime),
	}

	if path := os.Getenv(tripConfigPathEnv); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *TripConfig) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read trip config %s: %w", path, err)
	}

	var file TripConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTripFile, err)
	}

	c.merge(file)
	return nil
}

func (c *TripConfig) merge(o TripConfig) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.ID, o.ID)
	set(&c.Title, o.Title)
	set(&c.StartDate, o.StartDate)
	set(&c.EndDate, o.EndDate)
	set(&c.WakeupTime, o.WakeupTime)
	set(&c.SleepTime, o.SleepTime)
}

func (c *TripConfig) Validate() error {
	var errs []error

	if c.ID == "" {
		errs = append(errs, ErrTripIDMissing)
	}
	if _, err := time.Parse(clockLayout, c.WakeupTime); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalidClockTime, tripWakeupTimeEnv, c.WakeupTime))
	}
	if _, err := time.Parse(clockLayout, c.SleepTime); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalidClockTime, tripSleepTimeEnv, c.SleepTime))
	}

	if (c.StartDate == "") != (c.EndDate == "") {
		errs = append(errs, ErrTripDatesIncomplete)
	} else if c.StartDate != "" {
		start, startErr := domain.ParseDate(c.StartDate)
		end, endErr := domain.ParseDate(c.EndDate)
		switch {
		case startErr != nil:
			errs = append(errs, fmt.Errorf("%s: %w", tripStartDateEnv, startErr))
		case endErr != nil:
			errs = append(errs, fmt.Errorf("%s: %w", tripEndDateEnv, endErr))
		case end.Before(start):
			errs = append(errs, ErrTripDatesReversed)
		}
	}

	return errors.Join(errs...)
}

func (c *TripConfig) ToDomain() domain.Trip {
	return domain.Trip{
		ID:         c.ID,
		Title:      c.Title,
		StartDate:  c.StartDate,
		EndDate:    c.EndDate,
		WakeupTime: c.WakeupTime,
		SleepTime:  c.SleepTime,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
