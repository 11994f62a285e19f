package segment

import (
	"errors"
	"fmt"

	"github.com/chrissnell/cryo107/internal/types"
)

// ErrNoBoundary reports a start marker with no cut point after it, which
// only happens on a truncated or malformed log.
var ErrNoBoundary = errors.New("no closing phase boundary")

// BoundaryError identifies the phase start whose closing cut point is
// missing.
type BoundaryError struct {
	Kind  types.PhaseKind // phase kind being delimited
	Index int             // row index of the start marker
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("%s starting at row %d: no closing phase boundary", e.Kind, e.Index)
}

func (e *BoundaryError) Unwrap() error {
	return ErrNoBoundary
}
