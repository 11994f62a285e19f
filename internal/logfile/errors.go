package logfile

import (
	"errors"
	"fmt"
)

// Sentinel errors for log loading.
var (
	// ErrSchema indicates a source is structurally wrong: too few columns
	// or no data rows at all.
	ErrSchema = errors.New("log schema mismatch")

	// ErrParse indicates an unparseable timestamp or a non-numeric value
	// in a numeric channel.
	ErrParse = errors.New("log value unparseable")
)

// SchemaError is fatal for its source; there is no partial or best-effort
// load of a malformed 107 log.
type SchemaError struct {
	Path string
	Row  int // 1-based row in the file, 0 when the file as a whole is bad
	Msg  string
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d: %s", e.Path, e.Row, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// Unwrap returns ErrSchema for errors.Is support.
func (e *SchemaError) Unwrap() error { return ErrSchema }

// ParseError identifies the offending row, channel and raw value.  Like
// SchemaError it aborts the whole source.
type ParseError struct {
	Path   string
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: row %d: column %s: %q: %v", e.Path, e.Row, e.Column, e.Value, e.Err)
}

// Unwrap returns ErrParse for errors.Is support.
func (e *ParseError) Unwrap() error { return ErrParse }
