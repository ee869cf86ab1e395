package types

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format of last_replacement_date.
const DateLayout = "2006-01-02"

// acceptedDateLayouts are tried in order by ParseDate. Date-times are
// accepted and truncated to their calendar date.
var acceptedDateLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate parses an ISO 8601 date or date-time and returns the calendar
// date as midnight UTC. Returns an error wrapping ErrInvalidDate on failure.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range acceptedDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return civilDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FormatDate formats the calendar date of t in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns the calendar date of now (in now's location) as midnight UTC.
func Today(now time.Time) time.Time {
	return civilDate(now)
}

// DaysBetween returns the signed number of whole days from one calendar
// date to another.
func DaysBetween(from, to time.Time) int {
	return int(civilDate(to).Sub(civilDate(from)).Hours() / 24)
}

// civilDate drops the time of day and location, keeping the wall-clock date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextReplacement returns LastReplacement plus IntervalDays.
// Returns ErrNoSchedule if either field is missing and an error wrapping
// ErrInvalidDate if the stored date does not parse.
func (s *Schedule) NextReplacement() (time.Time, error) {
	if s == nil || s.LastReplacement == "" || s.IntervalDays == 0 {
		return time.Time{}, ErrNoSchedule
	}
	last, err := ParseDate(s.LastReplacement)
	if err != nil {
		return time.Time{}, err
	}
	return last.AddDate(0, 0, s.IntervalDays), nil
}

// DaysUntil returns the days from today until the next replacement.
// Negative values mean the replacement is overdue.
func (s *Schedule) DaysUntil(today time.Time) (int, error) {
	next, err := s.NextReplacement()
	if err != nil {
		return 0, err
	}
	return DaysBetween(today, next), nil
}
