package timecode

import "testing"

func TestParseTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "midnight", input: "00:00", expected: 0},
		{name: "morning", input: "09:00", expected: 540},
		{name: "last minute of day", input: "23:59", expected: 1439},
		{name: "single digits", input: "9:5", expected: 545},
		{name: "surrounding whitespace", input: " 11:30 ", expected: 690},
		{name: "span beyond a day", input: "25:00", expected: 1500},
		{name: "empty", input: "", expected: 0},
		{name: "letters", input: "abc", expected: 0},
		{name: "missing separator", input: "0900", expected: 0},
		{name: "missing minutes", input: "09:", expected: 0},
		{name: "non numeric minutes", input: "09:xx", expected: 0},
		{name: "negative hours", input: "-1:00", expected: 0},
		{name: "extra separator", input: "09:00:00", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTime(tt.input); got != tt.expected {
				t.Errorf("ParseTime(%q): got %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		minutes  int
		expected string
	}{
		{minutes: 0, expected: "00:00"},
		{minutes: 5, expected: "00:05"},
		{minutes: 690, expected: "11:30"},
		{minutes: 1439, expected: "23:59"},
		{minutes: 1440, expected: "00:00"},
		{minutes: 1500, expected: "01:00"},
		{minutes: 2 * MinutesPerDay, expected: "00:00"},
		{minutes: -30, expected: "23:30"},
		{minutes: -1441, expected: "23:59"},
	}

	for _, tt := range tests {
		if got := FormatTime(tt.minutes); got != tt.expected {
			t.Errorf("FormatTime(%d): got %q, want %q", tt.minutes, got, tt.expected)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for m := 0; m < MinutesPerDay; m++ {
		if got := ParseTime(FormatTime(m)); got != m {
			t.Fatalf("ParseTime(FormatTime(%d)): got %d", m, got)
		}
	}
}

func TestAddSpan(t *testing.T) {
	tests := []struct {
		name           string
		start          string
		duration       string
		expectedEnd    string
		expectedOffset int
	}{
		{name: "same day", start: "09:00", duration: "02:00", expectedEnd: "11:00", expectedOffset: 0},
		{name: "empty duration", start: "09:00", duration: "", expectedEnd: "09:00", expectedOffset: 0},
		{name: "empty start", start: "", duration: "00:30", expectedEnd: "00:30", expectedOffset: 0},
		{name: "ends exactly at midnight", start: "23:00", duration: "01:00", expectedEnd: "00:00", expectedOffset: 1},
		{name: "crosses midnight", start: "23:30", duration: "01:00", expectedEnd: "00:30", expectedOffset: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, offset := AddSpan(tt.start, tt.duration)
			if end != tt.expectedEnd {
				t.Errorf("end: got %q, want %q", end, tt.expectedEnd)
			}
			if offset != tt.expectedOffset {
				t.Errorf("offset: got %d, want %d", offset, tt.expectedOffset)
			}
		})
	}
}

func TestDayOffset(t *testing.T) {
	tests := []struct {
		minutes  int
		expected int
	}{
		{minutes: 0, expected: 0},
		{minutes: 1439, expected: 0},
		{minutes: 1440, expected: 1},
		{minutes: 2900, expected: 2},
		{minutes: -30, expected: 0},
	}

	for _, tt := range tests {
		if got := DayOffset(tt.minutes); got != tt.expected {
			t.Errorf("DayOffset(%d): got %d, want %d", tt.minutes, got, tt.expected)
		}
	}
}

func TestNormalizeDigitsToTime(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "0900", expected: "09:00"},
		{input: "090", expected: "090"},
		{input: "", expected: ""},
		{input: "1", expected: "1"},
		{input: "09:00", expected: "09:00"},
		{input: "12a3b4", expected: "12:34"},
		{input: "09001", expected: "09001"},
	}

	for _, tt := range tests {
		if got := NormalizeDigitsToTime(tt.input); got != tt.expected {
			t.Errorf("NormalizeDigitsToTime(%q): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}
