package segment

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/cryo107/internal/types"
)

// ChannelStats summarizes one sensor channel across a phase.  Rows whose
// reading is NaN (the missing-value marker) are excluded; Count reports
// how many real readings remain.
type ChannelStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// PhaseStats is the per-phase summary reported after segmentation: how
// long the phase ran and what the interesting channels did.  For a hold,
// the 50 mK standard deviation is the stability figure operators care
// about, and the setpoint median recovers the commanded hold temperature.
type PhaseStats struct {
	Name     string          `json:"name"`
	Kind     types.PhaseKind `json:"kind"`
	Rows     int             `json:"rows"`
	Hours    float64         `json:"hours"`
	Temp50mK ChannelStats    `json:"temp_50mk"`
	TempHe3  ChannelStats    `json:"temp_he3"`
	Temp3K   ChannelStats    `json:"temp_3k"`
	Temp50K  ChannelStats    `json:"temp_50k"`
	Setpoint ChannelStats    `json:"setpoint"`
	Current  ChannelStats    `json:"current"`
}

// Summarize computes the summary statistics for one phase.  An empty
// phase yields zero rows and NaN channel figures.
func Summarize(p types.Phase) PhaseStats {
	n := len(p.Samples)
	cols := struct {
		t50mk, the3, t3k, t50k, setpoint, current []float64
	}{
		t50mk:    make([]float64, n),
		the3:     make([]float64, n),
		t3k:      make([]float64, n),
		t50k:     make([]float64, n),
		setpoint: make([]float64, n),
		current:  make([]float64, n),
	}
	for i := range p.Samples {
		cols.t50mk[i] = p.Samples[i].Temp50mK
		cols.the3[i] = p.Samples[i].TempHe3
		cols.t3k[i] = p.Samples[i].Temp3K
		cols.t50k[i] = p.Samples[i].Temp50K
		cols.setpoint[i] = p.Samples[i].Setpoint
		cols.current[i] = p.Samples[i].Current
	}

	return PhaseStats{
		Name:     p.Name(),
		Kind:     p.Kind,
		Rows:     n,
		Hours:    p.Duration().Hours(),
		Temp50mK: summarizeChannel(cols.t50mk),
		TempHe3:  summarizeChannel(cols.the3),
		Temp3K:   summarizeChannel(cols.t3k),
		Temp50K:  summarizeChannel(cols.t50k),
		Setpoint: summarizeChannel(cols.setpoint),
		Current:  summarizeChannel(cols.current),
	}
}

// SummarizeAll summarizes every phase in a result in canonical order.
func SummarizeAll(res *Result) []PhaseStats {
	phases := res.Phases()
	out := make([]PhaseStats, 0, len(phases))
	for _, p := range phases {
		out = append(out, Summarize(p))
	}
	return out
}

func summarizeChannel(vals []float64) ChannelStats {
	clean := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		nan := math.NaN()
		return ChannelStats{Mean: nan, StdDev: nan, Median: nan, Min: nan, Max: nan}
	}
	out := ChannelStats{
		Mean:   stat.Mean(clean, nil),
		StdDev: stat.StdDev(clean, nil),
		Min:    floats.Min(clean),
		Max:    floats.Max(clean),
		Count:  len(clean),
	}
	// Quantile wants its input sorted; clean is already a private copy.
	sort.Float64s(clean)
	out.Median = stat.Quantile(0.5, stat.Empirical, clean, nil)
	return out
}
