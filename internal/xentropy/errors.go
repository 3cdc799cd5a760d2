package xentropy

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when an input tensor fails a placement,
// layout, shape or dtype precondition. It is the only error kind the ops
// produce: preconditions are caller bugs, not transient faults, and no
// partial results are written on failure.
var ErrInvalidArgument = errors.New("invalid argument")

// invalidArgf wraps ErrInvalidArgument with a formatted description so
// callers can match with errors.Is.
func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
