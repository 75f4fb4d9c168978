package validator

import (
	"fmt"
	"sort"
	"time"

	"github.com/derekprior/rrsched/internal/config"
	"github.com/derekprior/rrsched/internal/excel"
	"github.com/derekprior/rrsched/internal/roundrobin"
	"github.com/derekprior/rrsched/internal/schedule"
	"github.com/xuri/excelize/v2"
)

// Violation represents a constraint violation found during validation.
type Violation struct {
	Row     int
	Type    string // "error" or "warning"
	Message string
}

// Validate reads a schedule workbook and checks every tournament in it
// against the participants listed in the config.
func Validate(cfg *config.Config, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, err := excel.ReadSchedule(f)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}

	byTournament := make(map[string][]excel.Row)
	var violations []Violation
	for _, r := range rows {
		if _, ok := cfg.Tournament(r.Tournament); !ok {
			violations = append(violations, Violation{
				Row:     r.Sheet,
				Type:    "error",
				Message: fmt.Sprintf("unknown tournament %q", r.Tournament),
			})
			continue
		}
		byTournament[r.Tournament] = append(byTournament[r.Tournament], r)
	}

	for _, t := range cfg.Tournaments {
		fixtures := byTournament[t.Name]
		if len(fixtures) == 0 {
			violations = append(violations, Violation{
				Type:    "error",
				Message: fmt.Sprintf("%s has no fixtures", t.Name),
			})
			continue
		}

		// Check hard constraints
		violations = append(violations, checkParticipants(t, fixtures)...)
		violations = append(violations, checkRoundCount(t, fixtures)...)
		violations = append(violations, checkOncePerRound(t, fixtures)...)
		violations = append(violations, checkPairings(t, fixtures)...)

		// Check soft constraints
		violations = append(violations, checkHomeAwayBalance(t, fixtures)...)
		violations = append(violations, checkRoundDates(t, fixtures)...)
	}

	return violations, nil
}

func isBye(name string) bool {
	return name == schedule.ByeLabel
}

func checkParticipants(t config.Tournament, fixtures []excel.Row) []Violation {
	known := make(map[string]bool)
	for _, p := range t.Participants {
		known[p] = true
	}

	var violations []Violation
	for _, fx := range fixtures {
		if fx.Home == fx.Away {
			violations = append(violations, Violation{
				Row:     fx.Sheet,
				Type:    "error",
				Message: fmt.Sprintf("%s: %s is scheduled against itself in round %d", t.Name, fx.Home, fx.Round),
			})
			continue
		}
		for _, name := range []string{fx.Home, fx.Away} {
			if !known[name] && !isBye(name) {
				violations = append(violations, Violation{
					Row:     fx.Sheet,
					Type:    "error",
					Message: fmt.Sprintf("%s: unknown participant %q in round %d", t.Name, name, fx.Round),
				})
			}
		}
	}
	return violations
}

func checkRoundCount(t config.Tournament, fixtures []excel.Row) []Violation {
	rounds := make(map[int]bool)
	for _, fx := range fixtures {
		rounds[fx.Round] = true
	}

	want := schedule.RoundCount(len(t.Participants))
	if len(rounds) != want {
		return []Violation{{
			Type:    "error",
			Message: fmt.Sprintf("%s has %d rounds, want %d", t.Name, len(rounds), want),
		}}
	}
	for r := 1; r <= want; r++ {
		if !rounds[r] {
			return []Violation{{
				Type:    "error",
				Message: fmt.Sprintf("%s is missing round %d", t.Name, r),
			}}
		}
	}
	return nil
}

func checkOncePerRound(t config.Tournament, fixtures []excel.Row) []Violation {
	type roundEntry struct {
		round       int
		participant string
	}
	seen := make(map[roundEntry]int)

	var violations []Violation
	for _, fx := range fixtures {
		for _, name := range []string{fx.Home, fx.Away} {
			if isBye(name) {
				continue
			}
			k := roundEntry{fx.Round, name}
			seen[k]++
			if seen[k] == 2 {
				violations = append(violations, Violation{
					Row:     fx.Sheet,
					Type:    "error",
					Message: fmt.Sprintf("%s: %s plays more than once in round %d", t.Name, name, fx.Round),
				})
			}
		}
	}
	return violations
}

func checkPairings(t config.Tournament, fixtures []excel.Row) []Violation {
	type pairing struct{ a, b string }
	normalize := func(a, b string) pairing {
		if a > b {
			a, b = b, a
		}
		return pairing{a, b}
	}

	played := make(map[pairing][]int)
	for _, fx := range fixtures {
		if isBye(fx.Home) || isBye(fx.Away) || fx.Home == fx.Away {
			continue
		}
		k := normalize(fx.Home, fx.Away)
		played[k] = append(played[k], fx.Sheet)
	}

	var violations []Violation
	for i, a := range t.Participants {
		for _, b := range t.Participants[i+1:] {
			rows := played[normalize(a, b)]
			switch {
			case len(rows) == 0:
				violations = append(violations, Violation{
					Type:    "error",
					Message: fmt.Sprintf("%s: %s vs %s is never played", t.Name, a, b),
				})
			case len(rows) > 1:
				violations = append(violations, Violation{
					Row:     rows[1],
					Type:    "error",
					Message: fmt.Sprintf("%s: %s vs %s is played %d times", t.Name, a, b, len(rows)),
				})
			}
		}
	}
	return violations
}

// checkHomeAwayBalance replays the fixtures round by round and warns whenever
// a participant is assigned home or away while already at the imbalance bound.
func checkHomeAwayBalance(t config.Tournament, fixtures []excel.Row) []Violation {
	ordered := make([]excel.Row, len(fixtures))
	copy(ordered, fixtures)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Round < ordered[j].Round
	})

	n := len(t.Participants)
	if n%2 == 1 {
		n++
	}
	limit := roundrobin.MaxImbalance(n)

	home := make(map[string]int)
	away := make(map[string]int)
	var violations []Violation

	for start := 0; start < len(ordered); {
		end := start
		for end < len(ordered) && ordered[end].Round == ordered[start].Round {
			end++
		}
		round := ordered[start:end]

		for _, fx := range round {
			if !isBye(fx.Home) && home[fx.Home]-away[fx.Home] >= limit {
				violations = append(violations, Violation{
					Row:  fx.Sheet,
					Type: "warning",
					Message: fmt.Sprintf("%s: %s hosts in round %d with %d home and %d away (max lead %d)",
						t.Name, fx.Home, fx.Round, home[fx.Home], away[fx.Home], limit-1),
				})
			}
			if !isBye(fx.Away) && away[fx.Away]-home[fx.Away] >= limit {
				violations = append(violations, Violation{
					Row:  fx.Sheet,
					Type: "warning",
					Message: fmt.Sprintf("%s: %s travels in round %d with %d away and %d home (max lead %d)",
						t.Name, fx.Away, fx.Round, away[fx.Away], home[fx.Away], limit-1),
				})
			}
		}
		for _, fx := range round {
			home[fx.Home]++
			away[fx.Away]++
		}
		start = end
	}
	return violations
}

// checkRoundDates warns when a later round is dated before an earlier one.
func checkRoundDates(t config.Tournament, fixtures []excel.Row) []Violation {
	dates := make(map[int]time.Time)
	for _, fx := range fixtures {
		if fx.Date == "" {
			continue
		}
		d, err := time.Parse("01/02/2006", fx.Date)
		if err != nil {
			continue
		}
		if prev, ok := dates[fx.Round]; !ok || d.Before(prev) {
			dates[fx.Round] = d
		}
	}

	rounds := make([]int, 0, len(dates))
	for r := range dates {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)

	var violations []Violation
	for i := 1; i < len(rounds); i++ {
		prev, cur := dates[rounds[i-1]], dates[rounds[i]]
		if cur.Before(prev) {
			violations = append(violations, Violation{
				Type: "warning",
				Message: fmt.Sprintf("%s: round %d (%s) is dated before round %d (%s)",
					t.Name, rounds[i], cur.Format("01/02"), rounds[i-1], prev.Format("01/02")),
			})
		}
	}
	return violations
}
