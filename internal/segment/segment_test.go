package segment

import (
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/cryo107/internal/types"
)

// specRow describes one synthetic log row; channels not under test stay
// zero.
type specRow struct {
	notes string
	cur   float64
	t50mk float64
	src   string
}

func buildTable(step time.Duration, rows []specRow) types.Table {
	base := time.Date(2020, time.June, 18, 17, 8, 0, 0, time.UTC)
	table := make(types.Table, len(rows))
	for i, r := range rows {
		src := r.src
		if src == "" {
			src = "2020_06_18_17;08snout.csv"
		}
		table[i] = types.Sample{
			Timestamp:  base.Add(time.Duration(i) * step),
			Hours:      float64(i) * step.Hours(),
			Temp50mK:   r.t50mk,
			Current:    r.cur,
			Notes:      r.notes,
			SourcePath: src,
		}
	}
	return table
}

func newSplitter(params Params) *Splitter {
	return New(zap.NewNop().Sugar(), params)
}

// TestSplitSingleFileLayout walks a complete synthetic run through the
// default policy: cooldown, one magnet cycle, one hold, trailing warmup.
func TestSplitSingleFileLayout(t *testing.T) {
	rows := []specRow{
		{t50mk: 285},                                  // 0  cooldown
		{t50mk: 200},                                  // 1
		{t50mk: 50},                                   // 2
		{t50mk: 4.2},                                  // 3
		{notes: "Start Mag Cycle", cur: 0.5},          // 4  regen starts
		{cur: 20}, {cur: 20}, {cur: 20}, {cur: 20},    // 5-8
		{cur: 20}, {cur: 20},                          // 9-10
		{cur: 5},                                      // 11 ramp down
		{notes: "Mag Cycle complete 0.105K", cur: 0.3}, // 12 hold starts
		{cur: 0.3, t50mk: 0.105},                      // 13
		{cur: 0.3, t50mk: 0.105},                      // 14
		{cur: 0.3, t50mk: 0.105},                      // 15
		{t50mk: 30},                                   // 16 final row
	}
	table := buildTable(30*time.Minute, rows)

	res, err := newSplitter(DefaultParams()).Split(table)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	if len(res.Cooldowns) != 1 || len(res.Warmups) != 1 || len(res.Regens) != 1 || len(res.Regs) != 1 {
		t.Fatalf("phase counts = %d/%d/%d/%d cooldown/warmup/regen/reg, want 1 each",
			len(res.Cooldowns), len(res.Warmups), len(res.Regens), len(res.Regs))
	}

	cooldown := res.Cooldowns[0]
	if cooldown.Name() != "cooldown1" || len(cooldown.Samples) != 4 {
		t.Errorf("cooldown = %s with %d rows, want cooldown1 with 4", cooldown.Name(), len(cooldown.Samples))
	}
	if !cooldown.Start().Equal(table[0].Timestamp) {
		t.Errorf("cooldown starts at %v, want table start", cooldown.Start())
	}

	regen := res.Regens[0]
	if regen.Name() != "regen1" || len(regen.Samples) != 8 {
		t.Errorf("regen = %s with %d rows, want regen1 with 8", regen.Name(), len(regen.Samples))
	}
	if !regen.Start().Equal(table[4].Timestamp) {
		t.Errorf("regen starts at %v, want row 4", regen.Start())
	}

	reg := res.Regs[0]
	if reg.Name() != "reg1" || len(reg.Samples) != 4 {
		t.Errorf("reg = %s with %d rows, want reg1 with 4", reg.Name(), len(reg.Samples))
	}

	// The trailing slice doubles as the warmup when no later marker
	// exists; the final row itself belongs to no phase.
	warmup := res.Warmups[0]
	if len(warmup.Samples) != 4 {
		t.Errorf("warmup has %d rows, want 4", len(warmup.Samples))
	}
	if !warmup.Start().Equal(table[12].Timestamp) {
		t.Errorf("warmup starts at %v, want row 12", warmup.Start())
	}

	for _, p := range res.Phases() {
		if p.Empty() {
			continue
		}
		if p.Samples[0].Hours != 0 {
			t.Errorf("%s first row Hours = %v, want 0", p.Name(), p.Samples[0].Hours)
		}
		for i := 1; i < len(p.Samples); i++ {
			if p.Samples[i].Hours < p.Samples[i-1].Hours {
				t.Errorf("%s Hours decreases at row %d", p.Name(), i)
			}
		}
	}
}

func TestSplitPhasesAreIndependentCopies(t *testing.T) {
	rows := []specRow{
		{t50mk: 285}, {t50mk: 4.2},
		{notes: "Mag Cycle complete", cur: 0.3},
		{cur: 0.3}, {cur: 0.3},
	}
	table := buildTable(30*time.Minute, rows)

	res, err := newSplitter(DefaultParams()).Split(table)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(res.Regs) != 1 {
		t.Fatalf("expected one reg, got %d", len(res.Regs))
	}

	res.Regs[0].Samples[0].Current = 99
	res.Cooldowns[0].Samples[0].Temp50mK = -1
	if table[2].Current != 0.3 {
		t.Error("mutating a reg phase leaked into the source table")
	}
	if table[0].Temp50mK != 285 {
		t.Error("mutating a cooldown phase leaked into the source table")
	}
	if table[0].Hours != 0 {
		t.Errorf("source table Hours changed to %v", table[0].Hours)
	}
}

func TestRegenValidity(t *testing.T) {
	// A cycle is built as: one leading row, the start marker, a body of
	// peak-current rows, the completion marker at the given span, and a
	// trailing row.  The span runs from the start marker to the next cut
	// row, in 30-minute steps.
	build := func(peak float64, spanSteps int) types.Table {
		rows := []specRow{{t50mk: 285}}
		rows = append(rows, specRow{notes: "Start Mag Cycle", cur: 0.5})
		for i := 0; i < spanSteps-1; i++ {
			rows = append(rows, specRow{cur: peak})
		}
		rows = append(rows, specRow{notes: "Mag Cycle complete", cur: 0.3})
		rows = append(rows, specRow{cur: 0.3})
		return buildTable(30*time.Minute, rows)
	}

	tests := []struct {
		name      string
		peak      float64
		spanSteps int
		want      int
	}{
		{"energized four hour cycle", 20, 8, 1},
		{"magnet never energized", 10, 8, 0},
		{"cycle too long", 20, 12, 0},
		{"cycle too short", 20, 4, 0},
		{"exactly three hours rejected", 20, 6, 0},
		{"exactly five hours rejected", 20, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newSplitter(DefaultParams()).Split(build(tt.peak, tt.spanSteps))
			if err != nil {
				t.Fatalf("Split: %v", err)
			}
			if len(res.Regens) != tt.want {
				t.Errorf("got %d regens, want %d", len(res.Regens), tt.want)
			}
		})
	}
}

func TestRegenRequiresMarker(t *testing.T) {
	rows := []specRow{
		{t50mk: 285},
		{cur: 20}, {cur: 20}, {cur: 20}, {cur: 20},
		{cur: 20}, {cur: 20}, {cur: 20},
		{cur: 0.3},
	}
	res, err := newSplitter(DefaultParams()).Split(buildTable(30*time.Minute, rows))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(res.Regens) != 0 {
		t.Errorf("got %d regens without a start marker, want 0", len(res.Regens))
	}
}

func TestRegValidity(t *testing.T) {
	build := func(currents []float64) types.Table {
		rows := []specRow{
			{t50mk: 285},
			{notes: "Mag Cycle complete", cur: currents[0]},
		}
		for _, c := range currents[1:] {
			rows = append(rows, specRow{cur: c})
		}
		rows = append(rows, specRow{})
		return buildTable(30*time.Minute, rows)
	}

	tests := []struct {
		name     string
		currents []float64
		want     int
	}{
		{"oscillating hold current", []float64{0.2, 1.5, 0.4, 1.2}, 1},
		{"magnet truly off", []float64{0.05, 0.04, 0.05, 0.03}, 0},
		{"regen leakage", []float64{0.2, 2.5, 0.4, 0.3}, 0},
		{"single energized row is enough", []float64{0.05, 0.11, 0.05, 0.09}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newSplitter(DefaultParams()).Split(build(tt.currents))
			if err != nil {
				t.Fatalf("Split: %v", err)
			}
			if len(res.Regs) != tt.want {
				t.Errorf("got %d regs, want %d", len(res.Regs), tt.want)
			}
		})
	}
}

func TestRegZeroTemp50mKBecomesNaN(t *testing.T) {
	rows := []specRow{
		{t50mk: 285},
		{notes: "Mag Cycle canceled by operator: Mag Cycle Canceled", cur: 0.3, t50mk: 0.105},
		{cur: 0.3, t50mk: 0}, // sensor placeholder
		{cur: 0.3, t50mk: 0.106},
		{},
	}
	table := buildTable(30*time.Minute, rows)
	res, err := newSplitter(DefaultParams()).Split(table)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(res.Regs) != 1 {
		t.Fatalf("expected one reg, got %d", len(res.Regs))
	}

	samples := res.Regs[0].Samples
	if len(samples) != 3 {
		t.Fatalf("reg has %d rows, want 3", len(samples))
	}
	if !math.IsNaN(samples[1].Temp50mK) {
		t.Errorf("zero 50mK reading = %v, want NaN", samples[1].Temp50mK)
	}
	if samples[0].Temp50mK != 0.105 || samples[2].Temp50mK != 0.106 {
		t.Errorf("non-zero 50mK readings changed: %v, %v", samples[0].Temp50mK, samples[2].Temp50mK)
	}
	if table[2].Temp50mK != 0 {
		t.Errorf("source table 50mK = %v, want the raw zero preserved", table[2].Temp50mK)
	}
}

func TestSplitBoundaryErrors(t *testing.T) {
	tests := []struct {
		name string
		rows []specRow
		kind types.PhaseKind
	}{
		{
			name: "regen marker on final row",
			rows: []specRow{{t50mk: 285}, {}, {notes: "Start Mag Cycle", cur: 0.5}},
			kind: types.KindRegen,
		},
		{
			name: "reg marker on final row",
			rows: []specRow{{t50mk: 285}, {}, {notes: "Mag Cycle complete", cur: 0.3}},
			kind: types.KindReg,
		},
		{
			name: "single row table",
			rows: []specRow{{t50mk: 285}},
			kind: types.KindCooldown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newSplitter(DefaultParams()).Split(buildTable(30*time.Minute, tt.rows))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, ErrNoBoundary) {
				t.Fatalf("error %v does not wrap ErrNoBoundary", err)
			}
			var be *BoundaryError
			if !errors.As(err, &be) {
				t.Fatalf("expected *BoundaryError, got %T", err)
			}
			if be.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", be.Kind, tt.kind)
			}
		})
	}
}

func TestSplitEmptyTable(t *testing.T) {
	res, err := newSplitter(DefaultParams()).Split(nil)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if res.Len() != 0 {
		t.Errorf("empty table produced %d phases", res.Len())
	}
}

func TestSplitTempSpanPolicy(t *testing.T) {
	rows := []specRow{
		{t50mk: 285, src: "a.csv"},
		{t50mk: 4.0, src: "a.csv"},
		{t50mk: 4.0, src: "a.csv", notes: "Mag Cycle complete"},
		{t50mk: 4.0, src: "a.csv"},
		{t50mk: 285, src: "a.csv"},
		{t50mk: 285, src: "b.csv"},
		{t50mk: 4.0, src: "b.csv"},
		{t50mk: 4.0, src: "b.csv", notes: "Mag Cycle Canceled"},
		{t50mk: 4.0, src: "b.csv"},
		{t50mk: 285, src: "b.csv"},
	}
	table := buildTable(time.Hour, rows)

	params := DefaultParams()
	params.Policy = PolicyTempSpan
	res, err := newSplitter(params).Split(table)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	if len(res.Cooldowns) != 2 {
		t.Fatalf("got %d cooldowns, want 2 (one per source file)", len(res.Cooldowns))
	}
	if len(res.Warmups) != 2 {
		t.Fatalf("got %d warmups, want 2 (one per source file)", len(res.Warmups))
	}

	if !res.Cooldowns[0].Start().Equal(table[0].Timestamp) {
		t.Errorf("cooldown1 starts at %v, want table start", res.Cooldowns[0].Start())
	}
	if !res.Cooldowns[1].Start().Equal(table[5].Timestamp) {
		t.Errorf("cooldown2 starts at %v, want first row of b.csv", res.Cooldowns[1].Start())
	}
	if res.Cooldowns[1].Seq != 2 {
		t.Errorf("cooldown2 Seq = %d, want 2", res.Cooldowns[1].Seq)
	}
	if !res.Warmups[0].Start().Equal(table[2].Timestamp) {
		t.Errorf("warmup1 starts at %v, want row 2", res.Warmups[0].Start())
	}
	if !res.Warmups[1].Start().Equal(table[7].Timestamp) {
		t.Errorf("warmup2 starts at %v, want row 7", res.Warmups[1].Start())
	}

	// The hold candidates after each completion marker carry no current,
	// so both are rejected.
	if len(res.Regs) != 0 {
		t.Errorf("got %d regs, want 0", len(res.Regs))
	}
}

func TestTempSpanRejectsOneSidedCandidates(t *testing.T) {
	rows := []specRow{
		{t50mk: 285},
		{t50mk: 285.5},
		{t50mk: 284.6},
	}
	params := DefaultParams()
	params.Policy = PolicyTempSpan
	res, err := newSplitter(params).Split(buildTable(time.Hour, rows))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(res.Cooldowns) != 0 || len(res.Warmups) != 0 {
		t.Errorf("warm-only table produced %d cooldowns and %d warmups, want none",
			len(res.Cooldowns), len(res.Warmups))
	}
}
