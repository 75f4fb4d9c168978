package roundrobin

// byeResolver pads an odd participant count with a placeholder slot and
// rewrites placeholder references once the schedule is built.
type byeResolver struct {
	total       int
	placeholder int // -1 when no padding was needed
}

func newByeResolver(participants int) byeResolver {
	if participants%2 == 0 {
		return byeResolver{total: participants, placeholder: -1}
	}
	return byeResolver{total: participants + 1, placeholder: participants}
}

func (b byeResolver) resolve(rounds []Round) {
	if b.placeholder < 0 {
		return
	}
	for _, r := range rounds {
		for i := range r {
			if r[i].Home == b.placeholder {
				r[i].Home = NoOpponent
			}
			if r[i].Away == b.placeholder {
				r[i].Away = NoOpponent
			}
		}
	}
}
