package schedule

import (
	"time"

	"github.com/derekprior/rrsched/internal/config"
)

// RoundDates assigns a date to each of n rounds. Rounds are spaced by the
// season's interval; a round that lands on a blackout date moves to the next
// open day and later rounds follow from there. Returns nil when the season
// has no start date.
func RoundDates(season config.Season, n int) []time.Time {
	if season.StartDate.IsZero() || n <= 0 {
		return nil
	}

	blackoutDates := make(map[time.Time]bool)
	for _, b := range season.BlackoutDates {
		blackoutDates[b.Date.Time] = true
	}

	dates := make([]time.Time, 0, n)
	d := season.StartDate.Time
	for len(dates) < n {
		for blackoutDates[d] {
			d = d.AddDate(0, 0, 1)
		}
		dates = append(dates, d)
		d = d.AddDate(0, 0, season.Interval())
	}
	return dates
}
