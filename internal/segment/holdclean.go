package segment

import (
	"github.com/chrissnell/cryo107/internal/types"
)

// CleanHold returns a copy of a temperature hold with every row where the
// magnet is off removed, wherever those rows sit: a hold that trails off
// into a warmup loses its tail, one that starts before the cycle settles
// loses its head.  Hours is rebased onto the first surviving row.  A hold
// drained to nothing comes back empty rather than failing, and cleaning
// an already-clean hold returns it unchanged.
func CleanHold(samples types.Table, offCurrent float64) types.Table {
	kept := make(types.Table, 0, len(samples))
	for i := range samples {
		if samples[i].Current > offCurrent {
			kept = append(kept, samples[i])
		}
	}
	kept.RebaseHours()
	return kept
}
