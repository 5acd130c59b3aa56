package planner

import (
	"fmt"
	"time"
)

const (
	// ISODate is the accepted input layout
	ISODate = "2006-01-02"

	// DisplayDate is the layout of itinerary dates
	DisplayDate = "January 2, 2006"

	secondsPerDay = 24 * 60 * 60
)

// ParseRange parses an inclusive ISO date range and returns the number of days
func ParseRange(from, to string) (time.Time, int, error) {
	start, err := time.Parse(ISODate, from)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: from_date %q", ErrInvalidInput, from)
	}

	end, err := time.Parse(ISODate, to)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: to_date %q", ErrInvalidInput, to)
	}

	if end.Before(start) {
		return time.Time{}, 0, fmt.Errorf("%w: to_date %s is before from_date %s", ErrInvalidInput, to, from)
	}

	return start, int(epochDay(end)-epochDay(start)) + 1, nil
}

// DateList returns numDays consecutive display dates starting at start
func DateList(start time.Time, numDays int) []string {
	dates := make([]string, numDays)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i).Format(DisplayDate)
	}
	return dates
}

// epochDay counts whole days since the Unix epoch for a UTC midnight
func epochDay(t time.Time) int64 {
	return t.Unix() / secondsPerDay
}
