package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle detected")

// CycleError reports the active tasks that could not be placed in any batch
// because they sit on, or depend on, a dependency cycle.
type CycleError struct {
	Remainder []string
}

func (e *CycleError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s among: %s", ErrCycle.Error(), strings.Join(e.Remainder, ", "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }
