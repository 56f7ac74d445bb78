// Package timecode converts between "HH:MM" wall-clock text and minute counts.
// Parsing never fails: partially typed or malformed input is read as zero.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinutesPerHour = 60
	MinutesPerDay  = 24 * MinutesPerHour

	// Zero is the span used when an item has no duration.
	Zero = "00:00"
)

// ParseTime returns the minute count of an "HH:MM" value, or 0 when the text
// is empty, lacks a ':' separator, or has a non-numeric or negative part.
func ParseTime(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	hoursText, minutesText, found := strings.Cut(text, ":")
	if !found {
		return 0
	}

	hours, err := strconv.Atoi(hoursText)
	if err != nil || hours < 0 {
		return 0
	}
	minutes, err := strconv.Atoi(minutesText)
	if err != nil || minutes < 0 {
		return 0
	}

	return hours*MinutesPerHour + minutes
}

// FormatTime renders minutes as zero-padded "HH:MM", wrapping at 24 hours.
func FormatTime(minutes int) string {
	m := ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", m/MinutesPerHour, m%MinutesPerHour)
}

// AddSpan adds duration to start and returns the wrapped end time together
// with how many midnights the sum crossed.
func AddSpan(start, duration string) (end string, dayOffset int) {
	if duration == "" {
		duration = Zero
	}
	total := ParseTime(start) + ParseTime(duration)
	return FormatTime(total), DayOffset(total)
}

// DayOffset returns how many midnights a minute count from the start of a
// day has reached. Ending exactly at 24:00 counts as one.
func DayOffset(minutes int) int {
	if minutes < 0 {
		return 0
	}
	return minutes / MinutesPerDay
}

// NormalizeDigitsToTime masks raw input from a time field: non-digits are
// dropped and a ':' is inserted after the hours once exactly four digits are
// present. Any other length is returned as the bare digits.
func NormalizeDigitsToTime(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	if len(digits) == 4 {
		return digits[:2] + ":" + digits[2:]
	}
	return digits
}
