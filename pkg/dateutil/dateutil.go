package dateutil

import (
	"fmt"
	"strings"
	"time"
)

// DaysPerSimYear is the calendar span reserved per simulated year when
// slicing a price history. 52 weeks of trading-day samples always fit in it.
const DaysPerSimYear = 400

var layouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
}

// ParseDate parses a calendar date in any of the common export layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// SimSpan is the calendar duration covering years of simulation.
func SimSpan(years int) time.Duration {
	return time.Duration(years*DaysPerSimYear) * 24 * time.Hour
}

// Between returns the instant a fraction f of the way from start to end,
// truncated to the day. When end is not after start, start is returned
// unchanged.
func Between(start, end time.Time, f float64) time.Time {
	if !end.After(start) {
		return start
	}
	offset := time.Duration(float64(end.Sub(start)) * f)
	return start.Add(offset).Truncate(24 * time.Hour)
}
