// Package csvexport writes a tournament schedule as a flat CSV fixture list.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/derekprior/rrsched/internal/schedule"
)

// DefaultFilename is the name offered for single-schedule downloads.
const DefaultFilename = "tournament_schedule.csv"

var header = []string{"Round", "Home Team", "Away Team", "Venue"}

// Write writes one row per fixture, in round order, under a
// "Round,Home Team,Away Team,Venue" header.
func Write(w io.Writer, result *schedule.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, round := range result.Rounds {
		for _, fx := range round.Fixtures {
			record := []string{strconv.Itoa(round.Number), fx.Home, fx.Away, fx.Venue}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("writing round %d: %w", round.Number, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
