// Package timeutil provides wall-clock minute-of-day arithmetic for the
// booking engine. All times are local naive HH:MM values; no timezone
// conversion happens anywhere in this package.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// MinutesPerDay is the exclusive upper bound for a minute-of-day value.
const MinutesPerDay = 24 * 60

// ParseMinuteOfDay parses "HH:MM" or "HH:MM:SS" into minutes since midnight.
// Seconds, when present, must be zero-padded and are discarded. 24:00 is
// accepted as the end-of-day boundary.
func ParseMinuteOfDay(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("time value is required")
	}
	if idx := strings.Index(value, ":"); idx == -1 {
		return 0, fmt.Errorf("time %q must be in HH:MM format", value)
	}

	parts := strings.Split(value, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("time %q must be in HH:MM format", value)
	}

	var hours, minutes int
	if _, err := fmt.Sscanf(parts[0]+":"+parts[1], "%d:%d", &hours, &minutes); err != nil {
		return 0, fmt.Errorf("time %q must be in HH:MM format", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time %q is out of range", value)
	}

	total := hours*60 + minutes
	if total > MinutesPerDay {
		return 0, fmt.Errorf("time %q is out of range", value)
	}
	return total, nil
}

// FormatMinuteOfDay renders minutes since midnight as zero-padded "HH:MM",
// the storage layout comparable lexicographically.
func FormatMinuteOfDay(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > MinutesPerDay {
		minutes = MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Weekday is the canonical day-of-week enumeration used across the schema
// and the engine: ISO 8601, Monday=0 through Sunday=6. This is the only
// convention in the system; time.Weekday (Sunday=0) never crosses a package
// boundary.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// Valid reports whether d is within Monday..Sunday.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// WeekdayOf converts a calendar date to the canonical weekday.
func WeekdayOf(t time.Time) Weekday {
	// time.Weekday has Sunday=0; shift so Monday=0.
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// ParseDate parses a calendar date in "2006-01-02" form. The returned time
// carries no clock component and no timezone meaning beyond weekday lookup.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be in YYYY-MM-DD format", value)
	}
	return parsed, nil
}

// FormatDate renders a calendar date as "2006-01-02".
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
