// Package logfile reads model 107 ADR logger output into ordered sample
// tables.  The logger writes a CSV with one column-name row, two metadata
// rows (units plus a header artifact, both skipped), and data rows of at
// least 19 positional fields, of which eleven are consumed.
package logfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/cryo107/internal/types"
)

// timestampLayout matches the logger's MM/DD/YYYY HH:MM:SS wall clock; the
// non-padded form also accepts single-digit months, days and hours.  107
// logs carry no zone marker, so timestamps are interpreted as UTC.
const timestampLayout = "1/2/2006 15:04:05"

// Raw column positions consumed from a 107 log row.  The logger pads rows
// out to 19+ columns; the ones not named here are ignored.
const (
	colTimestamp   = 0
	colNotes       = 1
	colHours       = 2
	colTemp50mK    = 3
	colTempHe3     = 5
	colTemp50K     = 7
	colTemp3K      = 8
	colMagnetDiode = 9
	colCurrent     = 12
	colVoltage     = 13
	colSetpoint    = 18

	minColumns   = 19
	metadataRows = 2
)

// Load reads a complete 107 log file into a sample table ordered by
// timestamp.  The Hours channel is recomputed as elapsed hours from the
// file's first data row, and SourcePath is set to path on every sample.
// Any SchemaError or ParseError aborts the load; there are no partial
// tables.
func Load(path string) (types.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	return parse(f, path)
}

func parse(r io.Reader, path string) (types.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // rows are validated against minColumns below

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &SchemaError{Path: path, Msg: "empty file"}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < minColumns {
		return nil, &SchemaError{Path: path, Row: 1,
			Msg: fmt.Sprintf("expected at least %d columns, found %d", minColumns, len(header))}
	}

	// The two metadata rows are discarded regardless of their shape.
	for i := 0; i < metadataRows; i++ {
		if _, err := cr.Read(); err == io.EOF {
			return nil, &SchemaError{Path: path, Msg: "no data rows"}
		} else if err != nil {
			return nil, fmt.Errorf("skip metadata row: %w", err)
		}
	}

	var table types.Table
	row := metadataRows + 1 // 1-based file row of the last line read
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row++

		if len(rec) < minColumns {
			return nil, &SchemaError{Path: path, Row: row,
				Msg: fmt.Sprintf("expected at least %d columns, found %d", minColumns, len(rec))}
		}

		s, err := parseSample(rec, path, row)
		if err != nil {
			return nil, err
		}

		if n := len(table); n > 0 && s.Timestamp.Before(table[n-1].Timestamp) {
			return nil, &ParseError{Path: path, Row: row, Column: "Date/Time",
				Value: rec[colTimestamp], Err: errors.New("timestamp went backwards")}
		}
		table = append(table, s)
	}

	if len(table) == 0 {
		return nil, &SchemaError{Path: path, Msg: "no data rows"}
	}

	table.RebaseHours()
	return table, nil
}

// parseSample converts one raw CSV record into a Sample.  The logged Hours
// value is parsed so that garbage in the channel is caught here, even
// though the caller rebases Hours from timestamps afterwards.
func parseSample(rec []string, path string, row int) (types.Sample, error) {
	ts, err := time.ParseInLocation(timestampLayout, strings.TrimSpace(rec[colTimestamp]), time.UTC)
	if err != nil {
		return types.Sample{}, &ParseError{Path: path, Row: row, Column: "Date/Time",
			Value: rec[colTimestamp], Err: err}
	}

	s := types.Sample{
		Timestamp:  ts,
		Notes:      rec[colNotes],
		SourcePath: path,
	}

	channels := []struct {
		name string
		col  int
		dst  *float64
	}{
		{"Hours", colHours, &s.Hours},
		{"50mK", colTemp50mK, &s.Temp50mK},
		{"He-3", colTempHe3, &s.TempHe3},
		{"3K", colTemp3K, &s.Temp3K},
		{"MagnetDiode", colMagnetDiode, &s.MagnetDiode},
		{"50K", colTemp50K, &s.Temp50K},
		{"Setpoint", colSetpoint, &s.Setpoint},
		{"Current", colCurrent, &s.Current},
		{"Voltage", colVoltage, &s.Voltage},
	}
	for _, ch := range channels {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[ch.col]), 64)
		if err != nil {
			return types.Sample{}, &ParseError{Path: path, Row: row, Column: ch.name,
				Value: rec[ch.col], Err: err}
		}
		*ch.dst = v
	}

	return s, nil
}
