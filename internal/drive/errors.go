package drive

import (
	"errors"
	"fmt"
)

// Domain errors for motion commands.
var (
	// ErrInvalidParameter indicates a command or configuration value that
	// cannot produce a meaningful move.
	ErrInvalidParameter = errors.New("drive: invalid parameter")

	// ErrStalled indicates the master never entered the dead band within the
	// configured tick bound.
	ErrStalled = errors.New("drive: master actuator stalled outside dead band")

	// ErrTimeout indicates the configured wall-clock bound expired.
	ErrTimeout = errors.New("drive: motion command timed out")

	// ErrCanceled indicates the caller canceled the command.
	ErrCanceled = errors.New("drive: motion command canceled")
)

// MotionError wraps an error with control loop context.
type MotionError struct {
	Tick    int
	Goal    float64
	Master  Reading
	Wrapped error
}

func (e *MotionError) Error() string {
	return fmt.Sprintf("%s (tick %d, goal %.4f, master at %.4f)", e.Wrapped, e.Tick, e.Goal, e.Master.Position)
}

func (e *MotionError) Unwrap() error {
	return e.Wrapped
}

// InvalidParameter returns an ErrInvalidParameter wrapped with a reason.
func InvalidParameter(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}
