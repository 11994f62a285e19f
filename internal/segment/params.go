package segment

// Policy selects how cooldowns and warmups are found.
type Policy int

const (
	// PolicyEndpoints takes the first slice of the table as the cooldown
	// and the last slice as the warmup.  It fits a single log file, which
	// begins recording at the start of a cooldown and stops partway
	// through the warmup.
	PolicyEndpoints Policy = iota

	// PolicyTempSpan tests candidate slices around the table's endpoints
	// and around every source-file boundary, keeping those whose 50 mK
	// channel visits both the room-temperature band and the condensed
	// band.  It fits tables merged from several files out of the store,
	// where the endpoints of the range say nothing about run structure.
	PolicyTempSpan
)

func (p Policy) String() string {
	if p == PolicyTempSpan {
		return "tempspan"
	}
	return "endpoints"
}

// Params tunes the splitter's validity tests.  The zero value rejects
// everything; start from DefaultParams.
type Params struct {
	Policy Policy

	RegenCurrentMin float64 // A; a real magnet cycle drives the current above this
	RegenHoursMin   float64 // h; exclusive lower bound on a full cycle's span
	RegenHoursMax   float64 // h; exclusive upper bound on a full cycle's span

	RegCurrentFloor float64 // A; a hold with every reading below this never energized
	RegCurrentCeil  float64 // A; a hold with any reading above this caught regen leakage

	HoldOffCurrent float64 // A; at or below this the magnet counts as off

	WarmLow, WarmHigh float64 // K; 50 mK channel band at room temperature
	ColdLow, ColdHigh float64 // K; 50 mK channel band once the stage is condensed
}

// DefaultParams returns the validity thresholds for the model 107 fridge.
func DefaultParams() Params {
	return Params{
		Policy:          PolicyEndpoints,
		RegenCurrentMin: 15,
		RegenHoursMin:   3,
		RegenHoursMax:   5,
		RegCurrentFloor: 0.1,
		RegCurrentCeil:  2,
		HoldOffCurrent:  0.085,
		WarmLow:         284,
		WarmHigh:        286,
		ColdLow:         3.5,
		ColdHigh:        4.5,
	}
}
