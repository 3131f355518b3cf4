package helpers

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DateLayout is the calendar-day wire format.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a date string matches none of the accepted layouts.
var ErrInvalidDate = errors.New("invalid date")

// ParseDuration parses a duration string, returns default duration on error.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		// Use the global logger here, the configured one may not exist yet.
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

// CalendarDay truncates t to midnight UTC of the day written in t's own location,
// so "2024-01-01T23:30:00+05:00" stays on January 1st.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseInstant accepts YYYY-MM-DD or an RFC 3339 timestamp and keeps the
// instant and offset as written. A bare date is midnight UTC.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04:05Z0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ParseDay is ParseInstant reduced to its calendar day.
func ParseDay(s string) (time.Time, error) {
	t, err := ParseInstant(s)
	if err != nil {
		return time.Time{}, err
	}
	return CalendarDay(t), nil
}

// FormatDay renders a calendar day in DateLayout.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// IsAfterDay reports whether day a is strictly after the calendar day of b.
func IsAfterDay(a, b time.Time) bool {
	return CalendarDay(a).After(CalendarDay(b))
}
