package roundrobin

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

type pair struct{ a, b int }

func normalize(m Match) pair {
	if m.Home > m.Away {
		return pair{m.Away, m.Home}
	}
	return pair{m.Home, m.Away}
}

func TestGenerateFourParticipants(t *testing.T) {
	result, err := Generate(4)
	if err != nil {
		t.Fatalf("Generate(4) error: %v", err)
	}

	t.Run("schedule", func(t *testing.T) {
		want := []Round{
			{{0, 1}, {2, 3}},
			{{0, 2}, {1, 3}},
			{{1, 2}, {3, 0}},
		}
		if !reflect.DeepEqual(result.Schedule, want) {
			t.Errorf("schedule = %v, want %v", result.Schedule, want)
		}
	})

	t.Run("every pairing once", func(t *testing.T) {
		seen := make(map[pair]int)
		for _, r := range result.Schedule {
			for _, m := range r {
				seen[normalize(m)]++
			}
		}
		for _, p := range []pair{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}} {
			if seen[p] != 1 {
				t.Errorf("%d vs %d played %d times, want 1", p.a, p.b, seen[p])
			}
		}
	})

	t.Run("balance", func(t *testing.T) {
		want := map[int]HomeAway{
			0: {Home: 2, Away: 1},
			1: {Home: 2, Away: 1},
			2: {Home: 1, Away: 2},
			3: {Home: 1, Away: 2},
		}
		if !reflect.DeepEqual(result.Balance, want) {
			t.Errorf("balance = %v, want %v", result.Balance, want)
		}
	})
}

func TestGenerateSixParticipants(t *testing.T) {
	result, err := Generate(6)
	if err != nil {
		t.Fatalf("Generate(6) error: %v", err)
	}
	want := []Round{
		{{0, 1}, {2, 3}, {4, 5}},
		{{0, 2}, {1, 4}, {3, 5}},
		{{1, 2}, {3, 4}, {5, 0}},
		{{0, 3}, {1, 5}, {2, 4}},
		{{3, 1}, {4, 0}, {5, 2}},
	}
	if !reflect.DeepEqual(result.Schedule, want) {
		t.Errorf("schedule = %v, want %v", result.Schedule, want)
	}
}

func TestGenerateTwoParticipants(t *testing.T) {
	result, err := Generate(2)
	if err != nil {
		t.Fatalf("Generate(2) error: %v", err)
	}
	if len(result.Schedule) != 1 {
		t.Fatalf("rounds = %d, want 1", len(result.Schedule))
	}
	if !reflect.DeepEqual(result.Schedule[0], Round{{0, 1}}) {
		t.Errorf("round 1 = %v, want [{0 1}]", result.Schedule[0])
	}
}

func TestGenerateEvenCounts(t *testing.T) {
	for _, n := range []int{2, 4, 6, 8, 10, 12, 16, 20} {
		t.Run(fmt.Sprintf("%d participants", n), func(t *testing.T) {
			result, err := Generate(n)
			if err != nil {
				t.Fatalf("Generate(%d) error: %v", n, err)
			}

			if len(result.Schedule) != n-1 {
				t.Fatalf("rounds = %d, want %d", len(result.Schedule), n-1)
			}

			pairs := make(map[pair]int)
			for ri, r := range result.Schedule {
				if len(r) != n/2 {
					t.Errorf("round %d has %d matches, want %d", ri+1, len(r), n/2)
				}
				inRound := make(map[int]int)
				for _, m := range r {
					if m.Home == m.Away {
						t.Errorf("round %d: %d plays itself", ri+1, m.Home)
					}
					if m.IsBye() {
						t.Errorf("round %d: unexpected bye %v", ri+1, m)
					}
					inRound[m.Home]++
					inRound[m.Away]++
					pairs[normalize(m)]++
				}
				for p := 0; p < n; p++ {
					if inRound[p] != 1 {
						t.Errorf("round %d: participant %d appears %d times", ri+1, p, inRound[p])
					}
				}
			}

			for a := 0; a < n; a++ {
				for b := a + 1; b < n; b++ {
					if pairs[pair{a, b}] != 1 {
						t.Errorf("%d vs %d played %d times, want 1", a, b, pairs[pair{a, b}])
					}
				}
			}

			limit := MaxImbalance(n)
			home := make([]int, n)
			away := make([]int, n)
			for ri, r := range result.Schedule {
				for _, m := range r {
					if home[m.Home]-away[m.Home] >= limit {
						t.Errorf("round %d: %d hosted at imbalance %d", ri+1, m.Home, home[m.Home]-away[m.Home])
					}
					if away[m.Away]-home[m.Away] >= limit {
						t.Errorf("round %d: %d visited at imbalance %d", ri+1, m.Away, away[m.Away]-home[m.Away])
					}
				}
				for _, m := range r {
					home[m.Home]++
					away[m.Away]++
				}
			}

			if len(result.Balance) != n {
				t.Fatalf("balance entries = %d, want %d", len(result.Balance), n)
			}
			for p := 0; p < n; p++ {
				b := result.Balance[p]
				if b.Home+b.Away != n-1 {
					t.Errorf("participant %d played %d matches, want %d", p, b.Home+b.Away, n-1)
				}
				if b.Home != home[p] || b.Away != away[p] {
					t.Errorf("participant %d balance = %+v, replay gives %d/%d", p, b, home[p], away[p])
				}
				diff := b.Home - b.Away
				if diff < 0 {
					diff = -diff
				}
				if diff > limit {
					t.Errorf("participant %d final imbalance %d exceeds %d", p, diff, limit)
				}
			}
		})
	}
}

func TestGenerateDeterministic(t *testing.T) {
	first, err := Generate(10)
	if err != nil {
		t.Fatalf("Generate(10) error: %v", err)
	}
	second, err := Generate(10)
	if err != nil {
		t.Fatalf("Generate(10) error: %v", err)
	}
	if fmt.Sprint(first.Schedule) != fmt.Sprint(second.Schedule) {
		t.Errorf("schedules differ:\n%v\n%v", first.Schedule, second.Schedule)
	}
	if !reflect.DeepEqual(first.Balance, second.Balance) {
		t.Errorf("balances differ: %v vs %v", first.Balance, second.Balance)
	}
}

func TestGenerateOddCountsFailAtFirstRound(t *testing.T) {
	for _, n := range []int{3, 5, 7, 9, 15, 31} {
		t.Run(fmt.Sprintf("%d participants", n), func(t *testing.T) {
			result, err := Generate(n)
			if result != nil {
				t.Errorf("expected no partial result, got %v", result.Schedule)
			}
			var infeasible *InfeasibleError
			if !errors.As(err, &infeasible) {
				t.Fatalf("error = %v, want *InfeasibleError", err)
			}
			if infeasible.Round != 1 {
				t.Errorf("failed at round %d, want 1", infeasible.Round)
			}
			if infeasible.Participants != n {
				t.Errorf("participants = %d, want %d", infeasible.Participants, n)
			}
		})
	}
}

func TestGenerateSearchOrderDeadEnd(t *testing.T) {
	// First-found rounds paint the search into a corner for some even counts.
	cases := []struct {
		participants int
		round        int
	}{
		{14, 12},
		{18, 16},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d participants", tc.participants), func(t *testing.T) {
			_, err := Generate(tc.participants)
			var infeasible *InfeasibleError
			if !errors.As(err, &infeasible) {
				t.Fatalf("error = %v, want *InfeasibleError", err)
			}
			if infeasible.Round != tc.round {
				t.Errorf("failed at round %d, want %d", infeasible.Round, tc.round)
			}
		})
	}
}

func TestGenerateTooFewParticipants(t *testing.T) {
	for _, n := range []int{-1, 0, 1} {
		if _, err := Generate(n); !errors.Is(err, ErrTooFewParticipants) {
			t.Errorf("Generate(%d) error = %v, want ErrTooFewParticipants", n, err)
		}
	}
}

func TestInfeasibleErrorMessage(t *testing.T) {
	err := &InfeasibleError{Round: 3, Participants: 7}
	want := "failed to schedule round 3 for 7 participants"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
