// Package schedule holds the pure calendar helpers behind meal plans:
// weekday mapping, time-of-day parsing, day views and meal status.
package schedule

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for history entries.
const DateLayout = "2006-01-02"

// ParseTime parses an exact "HH:MM" string with hour 0-23 and minute 0-59.
func ParseTime(value string) (hour, minute int, err error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, 0, fmt.Errorf("schedule: time %q is not HH:MM", value)
	}
	hour, ok := twoDigits(value[0], value[1])
	if !ok {
		return 0, 0, fmt.Errorf("schedule: time %q has a non-numeric hour", value)
	}
	minute, ok = twoDigits(value[3], value[4])
	if !ok {
		return 0, 0, fmt.Errorf("schedule: time %q has a non-numeric minute", value)
	}
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("schedule: time %q out of range", value)
	}
	return hour, minute, nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// ValidTime reports whether value is a valid "HH:MM" time of day.
func ValidTime(value string) bool {
	_, _, err := ParseTime(value)
	return err == nil
}

// FormatTime renders an hour and minute as "HH:MM".
func FormatTime(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// DateISO formats t as a local calendar date.
func DateISO(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: invalid date %q: %w", value, err)
	}
	return t, nil
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
