package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates a blob position or velocity became NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrInvalidConfig indicates a run configuration that cannot be stepped.
	ErrInvalidConfig = errors.New("sim: invalid run config")
)

// StepError wraps an error with the tick it happened on.
type StepError struct {
	Step    int
	Time    float64
	BlobID  int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) blob %d: %v", e.Step, e.Time, e.BlobID, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
