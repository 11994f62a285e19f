// Package export writes segmented phases to files for downstream
// analysis tooling.  JSON is the default; MessagePack suits bulk
// transfer, and CSV round-trips into the same spreadsheet workflows the
// raw logs come from.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/chrissnell/cryo107/internal/segment"
	"github.com/chrissnell/cryo107/internal/types"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatCSV     Format = "csv"
)

// ParseFormat validates a format name from a flag or config value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatMsgpack, FormatCSV:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, msgpack, or csv)", s)
}

// csvTimeLayout matches the store's text key, not the raw logger format.
const csvTimeLayout = "2006-01-02 15:04:05"

var csvHeader = []string{
	"Date/Time", "Hours", "50mK", "He-3", "3K", "MagnetDiode",
	"50K", "Setpoint", "Current", "Voltage", "Notes", "Filepath",
}

// Exporter writes phases in one fixed format.
type Exporter struct {
	format Format
}

// New creates an Exporter for the given format.
func New(format Format) *Exporter {
	return &Exporter{format: format}
}

// Export writes every phase of the result into dir, one file per phase
// named after the phase, and returns the paths written.  Empty phases
// are written too; their files simply carry no rows.
func (e *Exporter) Export(res *segment.Result, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var paths []string
	for _, p := range res.Phases() {
		path := filepath.Join(dir, p.Name()+"."+string(e.format))
		f, err := os.Create(path)
		if err != nil {
			return paths, fmt.Errorf("failed to create %s: %w", path, err)
		}
		err = e.WritePhase(f, p)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WritePhase encodes one phase onto w in the exporter's format.
func (e *Exporter) WritePhase(w io.Writer, p types.Phase) error {
	switch e.format {
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json") // Use json tags for MessagePack
		return enc.Encode(phasePayload(p))
	case FormatCSV:
		return writeCSV(w, p)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(phasePayload(p))
	}
}

// phaseJSON is the encoded shape of a phase.  Sensor channels are
// pointers so a missing reading encodes as null; NaN is not
// representable in JSON.
type phaseJSON struct {
	Kind    types.PhaseKind `json:"kind"`
	Seq     int             `json:"seq"`
	Name    string          `json:"name"`
	Samples []sampleJSON    `json:"samples"`
}

type sampleJSON struct {
	Time        time.Time `json:"time"`
	Hours       float64   `json:"hours"`
	Temp50mK    *float64  `json:"temp_50mk"`
	TempHe3     *float64  `json:"temp_he3"`
	Temp3K      *float64  `json:"temp_3k"`
	MagnetDiode *float64  `json:"magnet_diode"`
	Temp50K     *float64  `json:"temp_50k"`
	Setpoint    *float64  `json:"setpoint"`
	Current     *float64  `json:"current"`
	Voltage     *float64  `json:"voltage"`
	Notes       string    `json:"notes"`
	Filepath    string    `json:"filepath,omitempty"`
}

func phasePayload(p types.Phase) phaseJSON {
	out := phaseJSON{
		Kind:    p.Kind,
		Seq:     p.Seq,
		Name:    p.Name(),
		Samples: make([]sampleJSON, len(p.Samples)),
	}
	for i := range p.Samples {
		smp := &p.Samples[i]
		out.Samples[i] = sampleJSON{
			Time:        smp.Timestamp,
			Hours:       smp.Hours,
			Temp50mK:    reading(smp.Temp50mK),
			TempHe3:     reading(smp.TempHe3),
			Temp3K:      reading(smp.Temp3K),
			MagnetDiode: reading(smp.MagnetDiode),
			Temp50K:     reading(smp.Temp50K),
			Setpoint:    reading(smp.Setpoint),
			Current:     reading(smp.Current),
			Voltage:     reading(smp.Voltage),
			Notes:       smp.Notes,
			Filepath:    smp.SourcePath,
		}
	}
	return out
}

// reading returns nil for the missing-value marker.
func reading(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func writeCSV(w io.Writer, p types.Phase) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := range p.Samples {
		smp := &p.Samples[i]
		record := []string{
			smp.Timestamp.UTC().Format(csvTimeLayout),
			formatChannel(smp.Hours),
			formatChannel(smp.Temp50mK),
			formatChannel(smp.TempHe3),
			formatChannel(smp.Temp3K),
			formatChannel(smp.MagnetDiode),
			formatChannel(smp.Temp50K),
			formatChannel(smp.Setpoint),
			formatChannel(smp.Current),
			formatChannel(smp.Voltage),
			smp.Notes,
			smp.SourcePath,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatChannel renders a reading for CSV; missing values become empty
// fields.
func formatChannel(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
