package timeutil

import (
	"fmt"
	"time"
)

// DayLayout is the calendar-day key used for time log buckets.
const DayLayout = "2006-01-02"

// DayKey returns the UTC calendar date of value as YYYY-MM-DD.
func DayKey(value time.Time) string {
	return value.UTC().Format(DayLayout)
}

// ParseDayKey parses a YYYY-MM-DD key as midnight UTC.
func ParseDayKey(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(DayLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return parsed, nil
}

// FormatClock renders seconds as HH:MM:SS. Hours are not capped at 24.
func FormatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// Hours converts seconds to fractional hours.
func Hours(seconds int64) float64 {
	return float64(seconds) / 3600
}
