package roundrobin

// pool is the arena of candidate matches between real participants, in
// iteration order: home ascending, then away ascending.
type pool struct {
	participants int
	matches      []Match
	removed      []bool
}

func newPool(participants int) *pool {
	p := &pool{
		participants: participants,
		matches:      make([]Match, 0, participants*(participants-1)),
	}
	for home := 0; home < participants; home++ {
		for away := 0; away < participants; away++ {
			if home == away {
				continue
			}
			p.matches = append(p.matches, Match{Home: home, Away: away})
		}
	}
	p.removed = make([]bool, len(p.matches))
	return p
}

// index returns the arena position of a directed match.
func (p *pool) index(home, away int) int {
	i := home*(p.participants-1) + away
	if away > home {
		i--
	}
	return i
}

// retire removes a pairing in both directions so it is never scheduled again.
func (p *pool) retire(m Match) {
	p.removed[p.index(m.Home, m.Away)] = true
	p.removed[p.index(m.Away, m.Home)] = true
}

func (p *pool) retireRound(r Round) {
	for _, m := range r {
		p.retire(m)
	}
}

// remaining returns the number of directed matches still available.
func (p *pool) remaining() int {
	n := 0
	for _, r := range p.removed {
		if !r {
			n++
		}
	}
	return n
}
