package roundrobin

// composer searches the pool for one perfect matching at a time.
type composer struct {
	pool    *pool
	balance *balance
	size    int // matches per round

	busy  []bool // slots occupied by picks
	picks []int  // arena indices, in pick order
}

func newComposer(p *pool, b *balance, total int) *composer {
	return &composer{
		pool:    p,
		balance: b,
		size:    total / 2,
		busy:    make([]bool, total),
		picks:   make([]int, 0, total/2),
	}
}

// compose returns the first complete round in pool order, or false if none
// exists. It does not touch the pool or the balance counters.
func (c *composer) compose() (Round, bool) {
	// Every slot must be filled, and the pool only knows real participants.
	if 2*c.size > c.pool.participants {
		return nil, false
	}

	c.picks = c.picks[:0]
	for i := range c.busy {
		c.busy[i] = false
	}
	if !c.extend(0) {
		return nil, false
	}

	round := make(Round, len(c.picks))
	for i, idx := range c.picks {
		round[i] = c.pool.matches[idx]
	}
	return round, true
}

// extend tries candidates from start onward. A candidate skipped at a
// shallower depth cannot complete any round, so earlier positions are never
// revisited.
func (c *composer) extend(start int) bool {
	if len(c.picks) == c.size {
		return true
	}

	for i := start; i < len(c.pool.matches); i++ {
		if c.pool.removed[i] {
			continue
		}
		m := c.pool.matches[i]
		if !c.balance.admissible(m, c.busy) {
			continue
		}

		c.push(i)
		if c.extend(i + 1) {
			return true
		}
		c.pop()
	}
	return false
}

func (c *composer) push(i int) {
	m := c.pool.matches[i]
	c.picks = append(c.picks, i)
	c.busy[m.Home] = true
	c.busy[m.Away] = true
}

func (c *composer) pop() {
	last := c.picks[len(c.picks)-1]
	m := c.pool.matches[last]
	c.picks = c.picks[:len(c.picks)-1]
	c.busy[m.Home] = false
	c.busy[m.Away] = false
}
