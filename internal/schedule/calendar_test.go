package schedule

import (
	"testing"
	"time"

	"github.com/derekprior/rrsched/internal/config"
)

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func date(y, m, d int) config.Date {
	return config.Date{Time: time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)}
}

func intPtr(n int) *int {
	return &n
}

func TestRoundDates(t *testing.T) {
	t.Run("weekly by default", func(t *testing.T) {
		season := config.Season{StartDate: date(2026, 9, 5)}
		dates := RoundDates(season, 3)
		want := []time.Time{mustDate("2026-09-05"), mustDate("2026-09-12"), mustDate("2026-09-19")}
		if len(dates) != len(want) {
			t.Fatalf("dates = %d, want %d", len(dates), len(want))
		}
		for i := range want {
			if !dates[i].Equal(want[i]) {
				t.Errorf("round %d date = %s, want %s", i+1, dates[i].Format("2006-01-02"), want[i].Format("2006-01-02"))
			}
		}
	})

	t.Run("custom interval", func(t *testing.T) {
		season := config.Season{StartDate: date(2026, 9, 5), RoundIntervalDays: intPtr(3)}
		dates := RoundDates(season, 2)
		if !dates[1].Equal(mustDate("2026-09-08")) {
			t.Errorf("round 2 date = %s, want 2026-09-08", dates[1].Format("2006-01-02"))
		}
	})

	t.Run("blackout pushes later rounds", func(t *testing.T) {
		season := config.Season{
			StartDate: date(2026, 9, 5),
			BlackoutDates: []config.BlackoutDate{
				{Date: date(2026, 9, 12), Reason: "Club day"},
				{Date: date(2026, 9, 13), Reason: "Club day"},
			},
		}
		dates := RoundDates(season, 3)
		want := []time.Time{mustDate("2026-09-05"), mustDate("2026-09-14"), mustDate("2026-09-21")}
		for i := range want {
			if !dates[i].Equal(want[i]) {
				t.Errorf("round %d date = %s, want %s", i+1, dates[i].Format("2006-01-02"), want[i].Format("2006-01-02"))
			}
		}
	})

	t.Run("no start date", func(t *testing.T) {
		if dates := RoundDates(config.Season{}, 3); dates != nil {
			t.Errorf("dates = %v, want nil", dates)
		}
	})
}
