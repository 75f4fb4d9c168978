package strategy

import (
	"fmt"
	"sort"
)

// Strategy decides the order in which participants are handed to the
// scheduler. The scheduler is order-sensitive, so the same names under a
// different strategy produce a different schedule.
type Strategy interface {
	Order(participants []string) []string
}

// Get returns a Strategy by name. An empty name selects AsListed.
func Get(name string) (Strategy, error) {
	switch name {
	case "", "as_listed":
		return AsListed{}, nil
	case "alphabetical":
		return Alphabetical{}, nil
	default:
		return nil, fmt.Errorf("unknown ordering: %q", name)
	}
}

// AsListed keeps the input order.
type AsListed struct{}

func (AsListed) Order(participants []string) []string {
	out := make([]string, len(participants))
	copy(out, participants)
	return out
}

// Alphabetical sorts participants by name.
type Alphabetical struct{}

func (Alphabetical) Order(participants []string) []string {
	out := make([]string, len(participants))
	copy(out, participants)
	sort.Strings(out)
	return out
}
