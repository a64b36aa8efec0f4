package engine

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned by Peek and Pop when no events remain. It signals
// normal termination, not a failure.
var ErrEmpty = errors.New("event queue is empty")

// TimeTravelError reports an attempt to move the clock, or schedule a
// wake-up, before the current simulated time. It always indicates a bug.
type TimeTravelError struct {
	Now       Minutes
	Requested Minutes
}

func (e *TimeTravelError) Error() string {
	return fmt.Sprintf("time travel: requested t=%d before current t=%d", e.Requested, e.Now)
}
