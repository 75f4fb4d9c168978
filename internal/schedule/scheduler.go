package schedule

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/derekprior/rrsched/internal/config"
	"github.com/derekprior/rrsched/internal/roundrobin"
	"github.com/derekprior/rrsched/internal/strategy"
)

const (
	// ByeLabel stands in for the missing opponent of a bye fixture.
	ByeLabel = "BYE"
	// NoVenue is the venue of a bye fixture.
	NoVenue = "N/A"
)

// ErrBusy is returned by BuildLimited when every engine slot is taken.
var ErrBusy = errors.New("scheduler is at capacity")

// Fixture is a match with participant indices resolved to names.
type Fixture struct {
	Home  string
	Away  string
	Venue string
}

// IsBye reports whether either side of the fixture is ByeLabel.
func (f Fixture) IsBye() bool {
	return f.Home == ByeLabel || f.Away == ByeLabel
}

// Round is one time slot of a tournament. Date is zero when the season has
// no calendar.
type Round struct {
	Number   int
	Date     time.Time
	Fixtures []Fixture
}

// Standing holds a participant's home/away record.
type Standing struct {
	Participant string
	Home        int
	Away        int
}

// Result is a named tournament schedule.
type Result struct {
	Tournament   string
	Participants []string // in the order handed to the scheduler
	Rounds       []Round
	Standings    []Standing
	Err          error // set by Schedule when this tournament failed
}

// RoundCount returns how many rounds a single round-robin of n participants
// needs, counting the bye slot for odd n.
func RoundCount(n int) int {
	if n%2 == 1 {
		return n
	}
	return n - 1
}

// Build schedules one tournament. Participant i in the generated schedule is
// participants[i]; dates, when given, are assigned to rounds in order.
func Build(name string, participants []string, dates []time.Time) (*Result, error) {
	if err := config.ValidateParticipants(participants); err != nil {
		return nil, err
	}

	gen, err := roundrobin.Generate(len(participants))
	if err != nil {
		return nil, err
	}

	resolve := func(i int) string {
		if i == roundrobin.NoOpponent {
			return ByeLabel
		}
		return participants[i]
	}

	result := &Result{
		Tournament:   name,
		Participants: participants,
		Rounds:       make([]Round, 0, len(gen.Schedule)),
		Standings:    make([]Standing, 0, len(participants)),
	}

	for i, r := range gen.Schedule {
		round := Round{Number: i + 1, Fixtures: make([]Fixture, 0, len(r))}
		if i < len(dates) {
			round.Date = dates[i]
		}
		for _, m := range r {
			f := Fixture{Home: resolve(m.Home), Away: resolve(m.Away), Venue: NoVenue}
			if !m.IsBye() {
				f.Venue = fmt.Sprintf("%s's venue", f.Home)
			}
			round.Fixtures = append(round.Fixtures, f)
		}
		result.Rounds = append(result.Rounds, round)
	}

	for i, p := range participants {
		b := gen.Balance[i]
		result.Standings = append(result.Standings, Standing{Participant: p, Home: b.Home, Away: b.Away})
	}

	return result, nil
}

// BuildContext runs Build on its own goroutine. The search itself cannot be
// interrupted; when ctx ends first the run is abandoned and ctx.Err() is
// returned.
func BuildContext(ctx context.Context, name string, participants []string, dates []time.Time) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return await(ctx, name, participants, dates, nil)
}

// BuildLimited is BuildContext gated by sem. It takes one unit of sem without
// waiting, returning ErrBusy when none is free, and gives it back only when
// the search finishes, so an abandoned run keeps its slot until it is done.
func BuildLimited(ctx context.Context, sem *semaphore.Weighted, name string, participants []string, dates []time.Time) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	return await(ctx, name, participants, dates, func() { sem.Release(1) })
}

func await(ctx context.Context, name string, participants []string, dates []time.Time, finish func()) (*Result, error) {
	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := Build(name, participants, dates)
		if finish != nil {
			finish()
		}
		done <- outcome{r, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Schedule builds every tournament in cfg concurrently. Each tournament gets
// its own scheduler state. A tournament that cannot be scheduled keeps its
// error in Result.Err and the returned error joins all such failures; the
// other results are still returned. progress, if non-nil, is called once per
// finished tournament from the worker goroutines.
func Schedule(ctx context.Context, cfg *config.Config, strat strategy.Strategy, progress func(*Result)) ([]*Result, error) {
	results := make([]*Result, len(cfg.Tournaments))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, t := range cfg.Tournaments {
		i, t := i, t
		g.Go(func() error {
			participants := strat.Order(t.Participants)
			dates := RoundDates(cfg.Season, RoundCount(len(participants)))

			r, err := BuildContext(ctx, t.Name, participants, dates)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				r = &Result{Tournament: t.Name, Participants: participants, Err: err}
			}
			results[i] = r
			if progress != nil {
				progress(r)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("tournament %q: %w", r.Tournament, r.Err))
		}
	}
	return results, errors.Join(errs...)
}
