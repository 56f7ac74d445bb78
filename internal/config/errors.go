package config

import "errors"

var (
	ErrRedisAddrMissing        = errors.New("REDIS_ADDR is required")
	ErrInvalidRedisDB          = errors.New("REDIS_DB must be a non-negative integer")
	ErrInvalidPersistTimeout   = errors.New("PERSIST_TIMEOUT_SECONDS must be a positive integer")
	ErrInvalidAutosaveFlag     = errors.New("AUTOSAVE_DISABLED must be a boolean")
	ErrInvalidAutosaveTimeout  = errors.New("AUTOSAVE_TIMEOUT_SECONDS must be a positive integer")
	ErrInvalidAutosaveTimezone = errors.New("AUTOSAVE_TIMEZONE must be an IANA time zone name")
	ErrInvalidTripFile         = errors.New("invalid trip config file")
	ErrTripIDMissing           = errors.New("TRIP_ID is required")
	ErrInvalidClockTime        = errors.New("time must be HH:MM")
	ErrTripDatesIncomplete     = errors.New("TRIP_START_DATE and TRIP_END_DATE must be set together")
	ErrTripDatesReversed       = errors.New("TRIP_END_DATE is before TRIP_START_DATE")
)
