// Package segment cuts a contiguous ADR log into its operational phases.
//
// The fridge control software drops sparse markers into the notes channel
// when the magnet cycle starts and finishes.  Those marker rows, the
// table's first and last rows, and any source-file boundaries inside a
// merged table together form the complete ordered set of cut points.  The
// slices between cut points become cooldown, regen, reg, and warmup phases
// once they pass per-kind validity tests; slices that fail are dropped
// silently, since a marker with no usable phase behind it is routine in
// real logs.
package segment

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/chrissnell/cryo107/internal/types"
)

// Markers written by the fridge control software.  Matching is
// case-sensitive substring containment; operators often add free text
// around them.
const (
	MarkerRegenStart    = "Start Mag Cycle"
	MarkerRegenComplete = "Mag Cycle complete"
	MarkerRegenCanceled = "Mag Cycle Canceled"
)

// Result holds every accepted phase from one table, ordered
// chronologically within each kind.  Seq on each phase matches that
// order.  Empty slices are normal: a quiet log yields no regens or regs.
type Result struct {
	Cooldowns []types.Phase
	Warmups   []types.Phase
	Regens    []types.Phase
	Regs      []types.Phase
}

// Phases flattens the result in canonical order: cooldowns, regens, regs,
// warmups.
func (r *Result) Phases() []types.Phase {
	out := make([]types.Phase, 0, r.Len())
	out = append(out, r.Cooldowns...)
	out = append(out, r.Regens...)
	out = append(out, r.Regs...)
	out = append(out, r.Warmups...)
	return out
}

// Len returns the total number of accepted phases.
func (r *Result) Len() int {
	return len(r.Cooldowns) + len(r.Warmups) + len(r.Regens) + len(r.Regs)
}

// Splitter segments tables under one fixed set of Params.  It keeps no
// state between calls and is safe for concurrent use as long as each call
// gets its own table.
type Splitter struct {
	logger *zap.SugaredLogger
	params Params
}

// New creates a Splitter with the given validity parameters.
func New(logger *zap.SugaredLogger, params Params) *Splitter {
	return &Splitter{
		logger: logger,
		params: params,
	}
}

// Split partitions the table into validated phases.  The input table is
// never modified; every returned phase owns an independent copy of its
// rows.  An empty table yields an empty result.
func (s *Splitter) Split(table types.Table) (*Result, error) {
	res := &Result{}
	if len(table) == 0 {
		return res, nil
	}

	cuts, changed := cutPoints(table)
	s.logger.Debugf("segmenting %d rows across %d cut points (policy %s)", len(table), len(cuts), s.params.Policy)

	switch s.params.Policy {
	case PolicyTempSpan:
		s.coolwarmByTempSpan(table, cuts, changed, res)
	default:
		if err := s.coolwarmByEndpoints(table, cuts, res); err != nil {
			return nil, err
		}
	}

	if err := s.extractRegens(table, cuts, res); err != nil {
		return nil, err
	}
	if err := s.extractRegs(table, cuts, res); err != nil {
		return nil, err
	}

	// Holds routinely trail off into a warmup or a dead magnet; strip
	// those rows before handing the phases back.
	for i := range res.Regs {
		res.Regs[i].Samples = CleanHold(res.Regs[i].Samples, s.params.HoldOffCurrent)
	}

	return res, nil
}

// cutPoints returns the ordered row indexes that bound phase slices: rows
// whose notes carry a marker, the table's first and last rows, and every
// row whose source path differs from the row before it.  The returned map
// flags which cuts are source-file boundaries.
func cutPoints(table types.Table) ([]int, map[int]bool) {
	marked := make([]bool, len(table))
	for i := range table {
		marked[i] = hasMarker(table[i].Notes)
	}
	marked[0] = true
	marked[len(table)-1] = true

	changed := make(map[int]bool)
	for i := 1; i < len(table); i++ {
		if table[i].SourcePath != table[i-1].SourcePath {
			marked[i] = true
			changed[i] = true
		}
	}

	cuts := make([]int, 0, 8)
	for i, m := range marked {
		if m {
			cuts = append(cuts, i)
		}
	}
	return cuts, changed
}

func hasMarker(notes string) bool {
	return strings.Contains(notes, MarkerRegenStart) ||
		strings.Contains(notes, MarkerRegenComplete) ||
		strings.Contains(notes, MarkerRegenCanceled)
}

// nextCut returns the first cut strictly after row i.
func nextCut(cuts []int, i int) (int, bool) {
	k := sort.SearchInts(cuts, i+1)
	if k == len(cuts) {
		return 0, false
	}
	return cuts[k], true
}

// coolwarmByEndpoints takes the table's first slice as its only cooldown
// and its last slice as its only warmup.
func (s *Splitter) coolwarmByEndpoints(table types.Table, cuts []int, res *Result) error {
	if len(cuts) < 2 {
		return &BoundaryError{Kind: types.KindCooldown, Index: cuts[0]}
	}

	cooldown := table.Slice(cuts[0], cuts[1])
	cooldown.RebaseHours()
	res.Cooldowns = append(res.Cooldowns, types.Phase{Kind: types.KindCooldown, Seq: 1, Samples: cooldown})

	warmup := table.Slice(cuts[len(cuts)-2], cuts[len(cuts)-1])
	warmup.RebaseHours()
	res.Warmups = append(res.Warmups, types.Phase{Kind: types.KindWarmup, Seq: 1, Samples: warmup})
	return nil
}

// coolwarmByTempSpan evaluates the slice after every candidate start (the
// table's first row and each source-file boundary) as a cooldown, and the
// slice before every candidate end (each source-file boundary and the
// table's last row) as a warmup.  A candidate is kept only when its 50 mK
// channel visits both the warm and the cold reference bands, which
// separates genuine transitions from noise between two markers.
func (s *Splitter) coolwarmByTempSpan(table types.Table, cuts []int, changed map[int]bool, res *Result) {
	startSet := map[int]bool{0: true}
	endSet := map[int]bool{len(cuts) - 1: true}
	for k, c := range cuts {
		if changed[c] {
			startSet[k] = true
			endSet[k] = true
		}
	}

	for _, k := range sortedKeys(startSet) {
		if k+1 >= len(cuts) {
			continue
		}
		if !s.spansWarmAndCold(table[cuts[k]:cuts[k+1]]) {
			s.logger.Debugf("cooldown candidate at row %d rejected: 50 mK channel stays inside one band", cuts[k])
			continue
		}
		phase := table.Slice(cuts[k], cuts[k+1])
		phase.RebaseHours()
		res.Cooldowns = append(res.Cooldowns, types.Phase{Kind: types.KindCooldown, Seq: len(res.Cooldowns) + 1, Samples: phase})
	}

	for _, k := range sortedKeys(endSet) {
		if k == 0 {
			continue
		}
		if !s.spansWarmAndCold(table[cuts[k-1]:cuts[k]]) {
			s.logger.Debugf("warmup candidate ending at row %d rejected: 50 mK channel stays inside one band", cuts[k])
			continue
		}
		phase := table.Slice(cuts[k-1], cuts[k])
		phase.RebaseHours()
		res.Warmups = append(res.Warmups, types.Phase{Kind: types.KindWarmup, Seq: len(res.Warmups) + 1, Samples: phase})
	}
}

// spansWarmAndCold reports whether the 50 mK channel takes a value in the
// warm band and a value in the cold band somewhere within the slice.
func (s *Splitter) spansWarmAndCold(rows types.Table) bool {
	var warm, cold bool
	for i := range rows {
		v := rows[i].Temp50mK
		if v >= s.params.WarmLow && v <= s.params.WarmHigh {
			warm = true
		}
		if v >= s.params.ColdLow && v <= s.params.ColdHigh {
			cold = true
		}
		if warm && cold {
			return true
		}
	}
	return false
}

// extractRegens collects the slice after every "Start Mag Cycle" marker,
// keeping those where the magnet actually energized and the cycle ran for
// a plausible length of time.  The span test runs against the next cut
// row itself, one row past the end of the half-open slice.
func (s *Splitter) extractRegens(table types.Table, cuts []int, res *Result) error {
	for i := range table {
		if !strings.Contains(table[i].Notes, MarkerRegenStart) {
			continue
		}
		end, ok := nextCut(cuts, i)
		if !ok {
			return &BoundaryError{Kind: types.KindRegen, Index: i}
		}

		if !currentAbove(table[i:end], s.params.RegenCurrentMin) {
			s.logger.Debugf("regen candidate at row %d rejected: magnet never above %g A", i, s.params.RegenCurrentMin)
			continue
		}
		span := table[end].Timestamp.Sub(table[i].Timestamp).Hours()
		if span <= s.params.RegenHoursMin || span >= s.params.RegenHoursMax {
			s.logger.Debugf("regen candidate at row %d rejected: %.2f h span outside (%g, %g)", i, span, s.params.RegenHoursMin, s.params.RegenHoursMax)
			continue
		}

		phase := table.Slice(i, end)
		phase.RebaseHours()
		res.Regens = append(res.Regens, types.Phase{Kind: types.KindRegen, Seq: len(res.Regens) + 1, Samples: phase})
	}
	return nil
}

// extractRegs collects the slice after every cycle-completion marker,
// keeping those where the magnet sat in the hold current range the whole
// time.  Zero readings on the 50 mK channel inside an accepted hold are a
// sensor placeholder, not data, and become NaN.
func (s *Splitter) extractRegs(table types.Table, cuts []int, res *Result) error {
	for i := range table {
		if !strings.Contains(table[i].Notes, MarkerRegenComplete) &&
			!strings.Contains(table[i].Notes, MarkerRegenCanceled) {
			continue
		}
		end, ok := nextCut(cuts, i)
		if !ok {
			return &BoundaryError{Kind: types.KindReg, Index: i}
		}

		var energized, leaked bool
		for j := i; j < end; j++ {
			if table[j].Current >= s.params.RegCurrentFloor {
				energized = true
			}
			if table[j].Current > s.params.RegCurrentCeil {
				leaked = true
			}
		}
		if !energized {
			s.logger.Debugf("reg candidate at row %d rejected: magnet never reached %g A", i, s.params.RegCurrentFloor)
			continue
		}
		if leaked {
			s.logger.Debugf("reg candidate at row %d rejected: magnet above %g A inside a hold", i, s.params.RegCurrentCeil)
			continue
		}

		phase := table.Slice(i, end)
		phase.RebaseHours()
		for j := range phase {
			if phase[j].Temp50mK == 0 {
				phase[j].Temp50mK = math.NaN()
			}
		}
		res.Regs = append(res.Regs, types.Phase{Kind: types.KindReg, Seq: len(res.Regs) + 1, Samples: phase})
	}
	return nil
}

func currentAbove(rows types.Table, threshold float64) bool {
	for i := range rows {
		if rows[i].Current > threshold {
			return true
		}
	}
	return false
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
