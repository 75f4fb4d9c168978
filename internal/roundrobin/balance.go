package roundrobin

// balance tracks home/away counts per real participant. Counters change only
// in commit, so abandoned search branches leave no trace.
type balance struct {
	home []int
	away []int
	max  int
}

func newBalance(participants, total int) *balance {
	return &balance{
		home: make([]int, participants),
		away: make([]int, participants),
		max:  MaxImbalance(total),
	}
}

// admissible reports whether m can join the round whose occupied slots are
// marked in busy.
func (b *balance) admissible(m Match, busy []bool) bool {
	if busy[m.Home] || busy[m.Away] {
		return false
	}
	if b.home[m.Home]-b.away[m.Home] >= b.max {
		return false
	}
	if b.away[m.Away]-b.home[m.Away] >= b.max {
		return false
	}
	return true
}

func (b *balance) commit(r Round) {
	for _, m := range r {
		b.home[m.Home]++
		b.away[m.Away]++
	}
}

func (b *balance) record() map[int]HomeAway {
	rec := make(map[int]HomeAway, len(b.home))
	for i := range b.home {
		rec[i] = HomeAway{Home: b.home[i], Away: b.away[i]}
	}
	return rec
}
