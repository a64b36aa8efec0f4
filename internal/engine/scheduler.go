// Discrete-event scheduler driving processes to a fixed horizon
package engine

import (
	"context"
	"errors"
	"fmt"

	"factory-sim/internal/logging"
)

// TimeTeller exposes the current simulated time.
type TimeTeller interface {
	Now() Minutes
}

// EventScheduler is the view of the engine handed to a waking process.
type EventScheduler interface {
	TimeTeller
	Horizon() Minutes
	Schedule(at Minutes, p Process) error
}

// Process is a resumable unit of simulated behavior. Wake is called once per
// due event; a process that wants to run again schedules itself before returning.
type Process interface {
	ID() string
	Wake(ctx context.Context, es EventScheduler) error
}

// StopReason explains why Run returned.
type StopReason string

const (
	StopHorizon   StopReason = "horizon"
	StopDrained   StopReason = "drained"
	StopCancelled StopReason = "cancelled"
)

// Result summarizes a scheduler run.
type Result struct {
	Clock   Minutes
	Wakeups int
	Pending int
	Reason  StopReason
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithAdvanceHook registers fn to be called after every clock advance.
func WithAdvanceHook(fn func(Minutes)) Option {
	return func(s *Scheduler) { s.onAdvance = fn }
}

// Scheduler owns the clock and the event queue.
type Scheduler struct {
	clock     Clock
	queue     *Queue
	horizon   Minutes
	onAdvance func(Minutes)
}

// NewScheduler creates a scheduler that stops once the next event lies beyond horizon.
func NewScheduler(horizon Minutes, opts ...Option) *Scheduler {
	s := &Scheduler{queue: NewQueue(), horizon: horizon}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Now returns the current simulated time.
func (s *Scheduler) Now() Minutes { return s.clock.Now() }

// Horizon returns the simulated time at which the run stops.
func (s *Scheduler) Horizon() Minutes { return s.horizon }

// Pending returns the number of outstanding wake-ups.
func (s *Scheduler) Pending() int { return s.queue.Len() }

// Register enqueues the first wake-up of p at the current time.
func (s *Scheduler) Register(p Process) error {
	return s.Schedule(s.clock.Now(), p)
}

// Schedule enqueues a wake-up of p at time at.
func (s *Scheduler) Schedule(at Minutes, p Process) error {
	if now := s.clock.Now(); at < now {
		return &TimeTravelError{Now: now, Requested: at}
	}
	s.queue.Push(at, p)
	return nil
}

// Run resumes processes in time order until the earliest pending event is
// past the horizon, the queue drains, or ctx is cancelled. Engine invariant
// violations abort the run and are returned.
func (s *Scheduler) Run(ctx context.Context) (Result, error) {
	log := logging.FromContext(ctx)
	log.Debug("scheduler starting", "horizon", s.horizon, "pending", s.queue.Len())

	var res Result
	for {
		if ctx.Err() != nil {
			res.Reason = StopCancelled
			break
		}
		ev, err := s.queue.Peek()
		if errors.Is(err, ErrEmpty) {
			res.Reason = StopDrained
			break
		}
		if ev.Due > s.horizon {
			res.Reason = StopHorizon
			break
		}
		if _, err := s.queue.Pop(); err != nil {
			return s.finish(res), err
		}
		if err := s.clock.AdvanceTo(ev.Due); err != nil {
			return s.finish(res), err
		}
		if s.onAdvance != nil {
			s.onAdvance(ev.Due)
		}
		if err := ev.proc.Wake(ctx, s); err != nil {
			return s.finish(res), fmt.Errorf("wake %s at t=%d: %w", ev.AgentID, ev.Due, err)
		}
		res.Wakeups++
	}

	res = s.finish(res)
	log.Debug("scheduler stopped", "reason", res.Reason, "clock", res.Clock, "wakeups", res.Wakeups, "pending", res.Pending)
	return res, nil
}

func (s *Scheduler) finish(res Result) Result {
	res.Clock = s.clock.Now()
	res.Pending = s.queue.Len()
	return res
}
