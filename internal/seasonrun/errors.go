package seasonrun

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a run cannot start with the given config.
	ErrInvalidConfig = errors.New("invalid season run config")
	// ErrUnexpectedStatus is returned when the server answers with an unexpected status.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrSeasonIncomplete is returned when the season does not finish in time.
	ErrSeasonIncomplete = errors.New("season incomplete")
	// ErrInconsistentTable is returned when the final table breaks an invariant.
	ErrInconsistentTable = errors.New("inconsistent table")
)

// StatusError reports a response whose status the client did not expect.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Is matches ErrUnexpectedStatus.
func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }
