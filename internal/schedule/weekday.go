package schedule

import (
	"fmt"
	"time"

	"github.com/starford/mealtime/internal/models"
)

// ParseWeekday validates a weekday key.
func ParseWeekday(s string) (models.Weekday, error) {
	for _, d := range models.Weekdays {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("schedule: unknown weekday %q", s)
}

// WeekdayOf returns the weekday key of t in its own location.
func WeekdayOf(t time.Time) models.Weekday {
	return models.Weekdays[int(t.Weekday())]
}

// SchedulerWeekday maps a weekday key to the recurrence trigger convention
// (1 = Sunday ... 7 = Saturday). Unknown keys map to Sunday.
func SchedulerWeekday(d models.Weekday) int {
	for i, k := range models.Weekdays {
		if k == d {
			return i + 1
		}
	}
	return 1
}

// FromSchedulerWeekday is the inverse of SchedulerWeekday.
func FromSchedulerWeekday(n int) (models.Weekday, error) {
	if n < 1 || n > 7 {
		return "", fmt.Errorf("schedule: weekday index %d out of range 1..7", n)
	}
	return models.Weekdays[n-1], nil
}

// NextOccurrence returns the first instant strictly after from that falls on
// the given scheduler weekday at hour:minute, in from's location.
func NextOccurrence(weekday, hour, minute int, from time.Time) time.Time {
	target := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location())
	current := int(from.Weekday()) + 1
	delta := weekday - current
	if delta < 0 || (delta == 0 && !target.After(from)) {
		delta += 7
	}
	return target.AddDate(0, 0, delta)
}
