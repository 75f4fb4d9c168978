package roundrobin

import (
	"errors"
	"fmt"
)

// NoOpponent marks the side of a match that faces the bye placeholder.
const NoOpponent = -1

// ErrTooFewParticipants is returned when fewer than two participants are given.
var ErrTooFewParticipants = errors.New("at least 2 participants are required")

// Match is a directed pairing of two participant indices.
type Match struct {
	Home int
	Away int
}

// IsBye reports whether either side of the match has no opponent.
func (m Match) IsBye() bool {
	return m.Home == NoOpponent || m.Away == NoOpponent
}

// Round holds the matches played in one time slot, in pool order.
type Round []Match

// HomeAway counts how often a participant was designated home or away.
type HomeAway struct {
	Home int
	Away int
}

// Result is the output of Generate.
type Result struct {
	Schedule []Round
	Balance  map[int]HomeAway // keyed by real participant index
}

// InfeasibleError reports that no complete round could be built.
type InfeasibleError struct {
	Round        int // 1-based
	Participants int
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("failed to schedule round %d for %d participants", e.Round, e.Participants)
}

// MaxImbalance returns the exclusive bound on |home-away| enforced at
// assignment time for a padded participant count.
func MaxImbalance(total int) int {
	return total/4 + 1
}

// Generate builds a single round-robin schedule for participants indexed
// 0..participants-1. The result is deterministic for a given count.
//
// Odd counts are padded with a placeholder, but the pool never pairs anyone
// with it, so they fail at round 1 with an *InfeasibleError.
func Generate(participants int) (*Result, error) {
	if participants < 2 {
		return nil, ErrTooFewParticipants
	}

	bye := newByeResolver(participants)
	pool := newPool(participants)
	balance := newBalance(participants, bye.total)
	c := newComposer(pool, balance, bye.total)

	rounds := make([]Round, 0, bye.total-1)
	for i := 0; i < bye.total-1; i++ {
		round, ok := c.compose()
		if !ok {
			return nil, &InfeasibleError{Round: i + 1, Participants: participants}
		}
		balance.commit(round)
		pool.retireRound(round)
		rounds = append(rounds, round)
	}

	bye.resolve(rounds)
	return &Result{
		Schedule: rounds,
		Balance:  balance.record(),
	}, nil
}
