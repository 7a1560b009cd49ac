package invariant

import (
	"errors"
	"fmt"
)

// ErrViolated is wrapped by every structural check failure.
var ErrViolated = errors.New("invariant violated")

// Violation formats a check failure that wraps ErrViolated.
func Violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrViolated, fmt.Sprintf(format, args...))
}

// Check runs fn when debug checks are compiled in and panics if it fails.
func Check(fn func() error) {
	if !Enabled {
		return
	}
	if err := fn(); err != nil {
		panic(err)
	}
}
