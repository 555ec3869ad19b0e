package main

import (
	"fmt"
	"time"

	"forum-letter/models"
)

// parseClock parses "HH:MM" in 24h form.
func parseClock(hhmm string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule.time %q: want HH:MM", hhmm)
	}
	return t.Hour(), t.Minute(), nil
}

// nextRun returns the first slot strictly after now. Weekly editions go out on Mondays.
func nextRun(now time.Time, hhmm string, loc *time.Location, cadence models.Cadence) (time.Time, error) {
	hour, minute, err := parseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	if cadence == models.CadenceWeekly {
		for next.Weekday() != time.Monday {
			next = next.AddDate(0, 0, 1)
		}
	}
	return next, nil
}
