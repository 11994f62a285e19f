package segment

import (
	"math"
	"testing"
	"time"

	"github.com/chrissnell/cryo107/internal/types"
)

func statsPhase(t50mk []float64) types.Phase {
	base := time.Date(2020, time.June, 23, 9, 0, 0, 0, time.UTC)
	samples := make(types.Table, len(t50mk))
	for i, v := range t50mk {
		samples[i] = types.Sample{
			Timestamp: base.Add(time.Duration(i) * 30 * time.Minute),
			Temp50mK:  v,
			Setpoint:  0.105,
			Current:   0.3,
		}
	}
	samples.RebaseHours()
	return types.Phase{Kind: types.KindReg, Seq: 1, Samples: samples}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarize(t *testing.T) {
	got := Summarize(statsPhase([]float64{0.1, 0.2, 0.3}))

	if got.Name != "reg1" || got.Kind != types.KindReg {
		t.Errorf("identity = %s/%s, want reg1/reg", got.Name, got.Kind)
	}
	if got.Rows != 3 {
		t.Errorf("Rows = %d, want 3", got.Rows)
	}
	if !approx(got.Hours, 1.0) {
		t.Errorf("Hours = %v, want 1.0", got.Hours)
	}

	ch := got.Temp50mK
	if !approx(ch.Mean, 0.2) {
		t.Errorf("Mean = %v, want 0.2", ch.Mean)
	}
	if !approx(ch.StdDev, 0.1) {
		t.Errorf("StdDev = %v, want 0.1", ch.StdDev)
	}
	if !approx(ch.Median, 0.2) {
		t.Errorf("Median = %v, want 0.2", ch.Median)
	}
	if !approx(ch.Min, 0.1) || !approx(ch.Max, 0.3) {
		t.Errorf("Min/Max = %v/%v, want 0.1/0.3", ch.Min, ch.Max)
	}
	if ch.Count != 3 {
		t.Errorf("Count = %d, want 3", ch.Count)
	}
	if !approx(got.Setpoint.Median, 0.105) {
		t.Errorf("Setpoint median = %v, want 0.105", got.Setpoint.Median)
	}
}

func TestSummarizeSkipsMissingReadings(t *testing.T) {
	got := Summarize(statsPhase([]float64{0.1, math.NaN(), 0.3}))

	ch := got.Temp50mK
	if ch.Count != 2 {
		t.Errorf("Count = %d, want 2", ch.Count)
	}
	if !approx(ch.Mean, 0.2) {
		t.Errorf("Mean = %v, want 0.2", ch.Mean)
	}
	if got.Rows != 3 {
		t.Errorf("Rows = %d, want 3 (NaN rows still count as rows)", got.Rows)
	}
}

func TestSummarizeEmptyPhase(t *testing.T) {
	got := Summarize(types.Phase{Kind: types.KindReg, Seq: 2})

	if got.Rows != 0 {
		t.Errorf("Rows = %d, want 0", got.Rows)
	}
	if !math.IsNaN(got.Temp50mK.Mean) {
		t.Errorf("Mean = %v, want NaN for an empty phase", got.Temp50mK.Mean)
	}
	if got.Temp50mK.Count != 0 {
		t.Errorf("Count = %d, want 0", got.Temp50mK.Count)
	}
}

func TestSummarizeAllCanonicalOrder(t *testing.T) {
	res := &Result{
		Cooldowns: []types.Phase{{Kind: types.KindCooldown, Seq: 1}},
		Warmups:   []types.Phase{{Kind: types.KindWarmup, Seq: 1}},
		Regens:    []types.Phase{{Kind: types.KindRegen, Seq: 1}},
		Regs:      []types.Phase{{Kind: types.KindReg, Seq: 1}},
	}
	stats := SummarizeAll(res)
	want := []string{"cooldown1", "regen1", "reg1", "warmup1"}
	if len(stats) != len(want) {
		t.Fatalf("got %d summaries, want %d", len(stats), len(want))
	}
	for i, name := range want {
		if stats[i].Name != name {
			t.Errorf("summary %d = %s, want %s", i, stats[i].Name, name)
		}
	}
}
