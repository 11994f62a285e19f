// Command log-simulator writes a synthetic but well-formed model 107 ADR
// log: a cooldown ramp, a configurable number of complete magnet cycles
// with regulated holds, and a warmup tail, with the marker notes the
// segmenter keys on.  Useful for exercising ingest and segmentation
// without a refrigerator on hand.
package main

import (
	"encoding/csv"
	"flag"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"
)

const (
	roomTemp = 285.0 // K, what the stage sensors read with the fridge warm
	bathTemp = 4.2   // K, helium bath the cold stages settle at
	peakAmps = 16.8  // A, full field

	cooldownLen = 8 * time.Hour
	magRampLen  = 1 * time.Hour
	soakLen     = 2 * time.Hour
	demagLen    = 1 * time.Hour
	holdLen     = 6 * time.Hour
	offTailLen  = 30 * time.Minute
	warmupLen   = 6 * time.Hour
)

// row is one fully-populated 107 log line before CSV rendering.
type row struct {
	t        time.Time
	note     string
	t50mk    float64
	tHe3     float64
	t3k      float64
	diode    float64
	t50k     float64
	setpoint float64
	current  float64
	voltage  float64
}

type simulator struct {
	rng      *rand.Rand
	logger   *log.Logger
	interval time.Duration
	holdTemp float64

	rows []row
	now  time.Time
}

func main() {
	var (
		out          = flag.String("out", "", "Output file path (default <start>snout.csv)")
		cycles       = flag.Int("cycles", 2, "Number of complete magnet cycles to simulate")
		interval     = flag.Duration("interval", time.Minute, "Time between log rows")
		seed         = flag.Int64("seed", 0, "Random seed (0 seeds from the current time)")
		startArg     = flag.String("start", "", "Run start time, '2006-01-02 15:04' UTC (default now)")
		holdSetpoint = flag.Float64("hold-setpoint", 0.105, "Temperature the holds regulate at, in K")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[log-simulator] ", log.LstdFlags)

	if *cycles < 1 {
		logger.Fatalf("-cycles must be at least 1, got %d", *cycles)
	}
	if *interval <= 0 {
		logger.Fatalf("-interval must be positive, got %v", *interval)
	}

	start := time.Now().UTC().Truncate(time.Minute)
	if *startArg != "" {
		var err error
		start, err = time.ParseInLocation("2006-01-02 15:04", *startArg, time.UTC)
		if err != nil {
			logger.Fatalf("Failed to parse -start: %v", err)
		}
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	path := *out
	if path == "" {
		// The logger names files like 2020_06_18_17;08snout.csv.
		path = start.Format("2006_01_02_15;04") + "snout.csv"
	}

	sim := &simulator{
		rng:      rand.New(rand.NewSource(*seed)),
		logger:   logger,
		interval: *interval,
		holdTemp: *holdSetpoint,
		now:      start,
	}
	sim.run(*cycles)

	if err := sim.write(path); err != nil {
		logger.Fatalf("Failed to write log: %v", err)
	}

	span := sim.rows[len(sim.rows)-1].t.Sub(start).Hours()
	logger.Printf("Wrote %d rows covering %.1f hours to %s", len(sim.rows), span, path)
}

func (s *simulator) run(cycles int) {
	s.cooldown()
	for i := 0; i < cycles; i++ {
		s.magCycle()
		s.logger.Printf("Simulated magnet cycle %d/%d", i+1, cycles)
	}
	s.warmup()
}

// stage appends dur/interval rows, passing fn the stage-relative fraction
// in [0,1).  The first row of a stage may carry a marker note.
func (s *simulator) stage(dur time.Duration, note string, fn func(frac float64) row) {
	n := int(dur / s.interval)
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		r := fn(float64(i) / float64(n))
		r.t = s.now
		if i == 0 {
			r.note = note
		}
		s.rows = append(s.rows, r)
		s.now = s.now.Add(s.interval)
	}
}

func (s *simulator) cooldown() {
	s.stage(cooldownLen, "Cooldown started", func(frac float64) row {
		decay := math.Exp(-7 * frac)
		t50mk := bathTemp + (roomTemp-bathTemp)*decay
		return row{
			t50mk: t50mk + s.noise(0.05),
			tHe3:  t50mk + s.noise(0.05),
			t3k:   3.0 + (roomTemp-3.0)*decay + s.noise(0.02),
			diode: 3.1 + (roomTemp-3.1)*decay + s.noise(0.02),
			t50k:  47.0 + (roomTemp-47.0)*decay + s.noise(0.2),
		}
	})
}

// magCycle emits one regen (ramp, soak, demag) framed by the marker notes,
// then a regulated hold and a short magnet-off tail.
func (s *simulator) magCycle() {
	s.stage(magRampLen, "Start Mag Cycle", func(frac float64) row {
		r := s.coldBase()
		r.current = peakAmps * frac
		r.voltage = 0.8 + s.noise(0.05)
		r.t50mk = bathTemp + 1.1*frac + s.noise(0.01)
		r.tHe3 = r.t50mk - 0.2
		return r
	})
	s.stage(soakLen, "", func(frac float64) row {
		r := s.coldBase()
		r.current = peakAmps + s.noise(0.02)
		r.voltage = 0.5 + s.noise(0.02)
		r.t50mk = bathTemp + 1.1*math.Exp(-3*frac) + s.noise(0.01)
		r.tHe3 = r.t50mk - 0.2
		return r
	})
	s.stage(demagLen, "", func(frac float64) row {
		r := s.coldBase()
		r.current = 0.25 + (peakAmps-0.25)*(1-frac)
		r.voltage = -0.6 + s.noise(0.02)
		rem := (1 - frac) * (1 - frac)
		r.t50mk = s.holdTemp + (bathTemp-s.holdTemp)*rem + s.noise(0.005)
		r.tHe3 = 0.3 + (bathTemp-0.3)*rem
		return r
	})
	s.stage(holdLen, "Mag Cycle complete", func(frac float64) row {
		r := s.coldBase()
		r.current = 0.11 + 0.14*math.Exp(-3*frac)
		r.voltage = 0.01 + s.noise(0.002)
		r.setpoint = s.holdTemp
		r.t50mk = s.holdTemp + s.noise(0.0004)
		r.tHe3 = 0.3 + s.noise(0.002)
		return r
	})
	s.stage(offTailLen, "", func(frac float64) row {
		r := s.coldBase()
		r.current = 0.0
		r.t50mk = s.holdTemp + 0.4*frac
		r.tHe3 = 0.3 + 0.2*frac
		return r
	})
}

func (s *simulator) warmup() {
	// The stage creeps up to the bath temperature while the remaining
	// helium boils off, then climbs to room temperature.
	s.stage(warmupLen, "Warmup started", func(frac float64) row {
		var t50mk float64
		if frac < 0.25 {
			t50mk = 0.5 + (bathTemp-0.5)*(frac/0.25)
		} else {
			climb := (frac - 0.25) / 0.75
			t50mk = roomTemp + (bathTemp-roomTemp)*math.Exp(-7*climb)
		}
		rise := (t50mk - 0.5) / (roomTemp - 0.5)
		return row{
			t50mk: t50mk + s.noise(0.05),
			tHe3:  math.Max(0.5, t50mk-0.1),
			t3k:   3.0 + (roomTemp-3.0)*rise + s.noise(0.02),
			diode: 3.1 + (roomTemp-3.1)*rise + s.noise(0.02),
			t50k:  47.0 + (roomTemp-47.0)*rise + s.noise(0.2),
		}
	})
}

// coldBase is the steady state of the support stages once cooled.
func (s *simulator) coldBase() row {
	return row{
		t3k:   3.0 + s.noise(0.02),
		diode: 3.1 + s.noise(0.02),
		t50k:  47.0 + s.noise(0.2),
	}
}

func (s *simulator) noise(scale float64) float64 {
	return (s.rng.Float64() - 0.5) * scale
}

func (s *simulator) write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = s.writeRows(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *simulator) writeRows(f io.Writer) error {
	w := csv.NewWriter(f)

	// One column-name row, then the two metadata rows every 107 log
	// carries; loaders skip both.
	header := []string{
		"Date/Time", "Comment", "Elapsed Hours", "50mK FAA", "50mK RuOx",
		"He-3", "He-3 aux", "50K Stage", "3K Stage", "Magnet Diode",
		"PID Output", "Heater Range", "Magnet Current", "Magnet Voltage",
		"Aux1", "Aux2", "Aux3", "Aux4", "Setpoint",
	}
	units := []string{
		"", "", "hr", "K", "Ohm", "K", "K", "K", "K", "K",
		"%", "", "A", "V", "", "", "", "", "K",
	}
	channels := []string{
		"", "", "", "CH1", "CH1R", "CH2", "CH2R", "CH3", "CH4", "CH5",
		"", "", "", "", "", "", "", "", "",
	}
	for _, rec := range [][]string{header, units, channels} {
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	start := s.rows[0].t
	for _, r := range s.rows {
		rec := []string{
			r.t.Format("01/02/2006 15:04:05"),
			r.note,
			num(r.t.Sub(start).Hours()),
			num(r.t50mk),
			num(2000 + 150*s.rng.Float64()), // RuOx resistance, unused downstream
			num(r.tHe3),
			num(r.tHe3),
			num(r.t50k),
			num(r.t3k),
			num(r.diode),
			num(0),
			num(0),
			num(r.current),
			num(r.voltage),
			num(0), num(0), num(0), num(0),
			num(r.setpoint),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
