// Simulated clock for the discrete-event engine
package engine

import "time"

// Minutes counts simulated minutes elapsed since the start of a run.
type Minutes int64

// Duration converts simulated minutes to a time.Duration offset.
func (m Minutes) Duration() time.Duration {
	return time.Duration(m) * time.Minute
}

// Clock holds the authoritative simulated time. Only the Scheduler moves it.
type Clock struct {
	now Minutes
}

// Now returns the current simulated time.
func (c *Clock) Now() Minutes {
	return c.now
}

// AdvanceTo moves the clock forward to t. Moving backwards is refused.
func (c *Clock) AdvanceTo(t Minutes) error {
	if t < c.now {
		return &TimeTravelError{Now: c.now, Requested: t}
	}
	c.now = t
	return nil
}
