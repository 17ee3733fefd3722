package types

import (
	"fmt"
	"strings"
	"time"
)

const (
	// TimestampLayout is the durable timestamp format, e.g. "2025-12-08 2:00 PM".
	TimestampLayout = "2006-01-02 3:04 PM"
	DateLayout      = "2006-01-02"
	ClockLayout     = "3:04 PM"

	legacyTimestampLayout = "2006-01-02 3:04:05 PM"
)

// FormatTimestamp renders t in the durable format.  Seconds are dropped.
func FormatTimestamp(t time.Time) string { return t.Format(TimestampLayout) }

// ParseTimestamp parses a durable timestamp in loc.  A zero-padded hour and
// the legacy form carrying seconds are accepted; seconds are truncated.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ToUpper(s)

	for _, layout := range []string{TimestampLayout, legacyTimestampLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.Truncate(time.Minute), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: want YYYY-MM-DD H:MM AM/PM", s)
}

// ParseDate parses a "YYYY-MM-DD" date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseClock parses a 24-hour "15:04" time of day (the value an HTML time
// input submits) and places it on the date of day.
func ParseClock(s string, day time.Time) (time.Time, error) {
	c, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, day.Location()), nil
}

func DateKey(t time.Time) string { return t.Format(DateLayout) }

// FormatClock renders a time of day without a leading zero on the hour.
func FormatClock(t time.Time) string { return t.Format(ClockLayout) }

// FormatDisplayDate renders a date key as "Apr. 15".  Unparseable input is
// returned unchanged.
func FormatDisplayDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Jan") + ". " + t.Format("2")
}
