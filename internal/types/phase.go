package types

import (
	"fmt"
	"time"
)

// PhaseKind identifies which part of an ADR run a phase belongs to.
type PhaseKind string

const (
	KindCooldown PhaseKind = "cooldown"
	KindWarmup   PhaseKind = "warmup"
	KindRegen    PhaseKind = "regen"
	KindReg      PhaseKind = "reg"
)

// Phase is one contiguous, validated slice of a run: a cooldown, a warmup,
// a magnet-cycle regeneration, or a temperature hold.  Samples is an
// independent copy of the source rows with its Hours channel rebased to the
// phase's own first timestamp.  Seq numbers phases of the same kind in
// chronological order starting at 1.
type Phase struct {
	Kind    PhaseKind `json:"kind"`
	Seq     int       `json:"seq"`
	Samples Table     `json:"samples"`
}

// Name returns the conventional phase name: "cooldown1", "regen2", "reg3".
func (p Phase) Name() string {
	return fmt.Sprintf("%s%d", p.Kind, p.Seq)
}

// Start returns the timestamp of the phase's first sample, or the zero time
// for an empty phase.
func (p Phase) Start() time.Time {
	if len(p.Samples) == 0 {
		return time.Time{}
	}
	return p.Samples[0].Timestamp
}

// Duration is the span between the phase's first and last samples.
func (p Phase) Duration() time.Duration {
	return p.Samples.Span()
}

// Empty reports whether every row of the phase was filtered away.  Empty
// phases are legal outputs (the hold cleaner can drain a hold completely)
// and downstream consumers must tolerate them.
func (p Phase) Empty() bool {
	return len(p.Samples) == 0
}
