// Simulator driving machine agents through the discrete-event engine
package sim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"factory-sim/internal/config"
	"factory-sim/internal/engine"
	"factory-sim/internal/logging"
	"factory-sim/internal/profile"
	"factory-sim/internal/telemetry"
)

// flushTimeout bounds how long sinks may take to drain after the horizon.
const flushTimeout = 30 * time.Second

// Summary is reported when a run completes.
type Summary struct {
	RunID            string            `json:"run_id"`
	Seed             int64             `json:"seed"`
	Agents           int               `json:"agents"`
	Records          int               `json:"records"`
	Delivered        int64             `json:"delivered"`
	Failures         int64             `json:"failures"`
	LastError        string            `json:"last_error,omitempty"`
	SimulatedMinutes engine.Minutes    `json:"simulated_minutes"`
	Wakeups          int               `json:"wakeups"`
	Reason           engine.StopReason `json:"reason"`
}

// Status is a live view of a run for the admin server.
type Status struct {
	RunID     string               `json:"run_id"`
	Seed      int64                `json:"seed"`
	Profile   string               `json:"profile"`
	Running   bool                 `json:"running"`
	Finished  bool                 `json:"finished"`
	SimMinute engine.Minutes       `json:"sim_minute"`
	Horizon   engine.Minutes       `json:"horizon"`
	Start     time.Time            `json:"start"`
	Agents    int                  `json:"agents"`
	Records   int                  `json:"records"`
	Delivered int64                `json:"delivered"`
	Failures  int64                `json:"failures"`
	LastError string               `json:"last_error,omitempty"`
	Sinks     map[string]SinkStats `json:"sinks"`
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRunID sets the run ID instead of generating one.
func WithRunID(id string) Option {
	return func(s *Simulator) { s.runID = id }
}

// WithClock sets the wall-clock source used when no start time is configured.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// Simulator owns the machines and the scheduler of one run.
type Simulator struct {
	cfg      *config.SimulationConfig
	profile  *profile.Profile
	runID    string
	seed     int64
	start    time.Time
	now      func() time.Time
	writer   RecordWriter
	stats    *DeliveryStats
	machines []*Machine
	sched    *engine.Scheduler

	simMinute atomic.Int64
	mu        sync.Mutex
	running   bool
	finished  bool
}

// NewSimulator builds the machines of a run. Records go to writer; stats
// collects delivery outcomes and may be shared with the delivery wrappers
// inside writer.
func NewSimulator(cfg *config.SimulationConfig, prof *profile.Profile, writer RecordWriter, stats *DeliveryStats, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if prof == nil {
		return nil, fmt.Errorf("no profile")
	}
	if stats == nil {
		stats = NewDeliveryStats()
	}
	s := &Simulator{
		cfg:     cfg,
		profile: prof,
		now:     time.Now,
		writer:  writer,
		stats:   stats,
	}
	for _, o := range opts {
		o(s)
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	if cfg.Seed != nil {
		s.seed = *cfg.Seed
	} else {
		s.seed = s.now().UnixNano()
	}
	start, ok, err := cfg.Start()
	if err != nil {
		return nil, err
	}
	if !ok {
		start = s.now().Truncate(time.Second)
	}
	s.start = start

	s.sched = engine.NewScheduler(engine.Minutes(cfg.Horizon), engine.WithAdvanceHook(func(m engine.Minutes) {
		s.simMinute.Store(int64(m))
		simClockMinutes.Set(float64(m))
	}))
	interval := engine.Minutes(cfg.IntervalMinutes)
	for i := 0; i < cfg.AgentCount; i++ {
		id := fmt.Sprintf("%s%d", cfg.MachinePrefix, i+1)
		gen := telemetry.NewGenerator(prof, NewRand(s.seed, id))
		m := NewMachine(id, interval, gen, start, writer)
		if err := s.sched.Register(m); err != nil {
			return nil, fmt.Errorf("register %s: %w", id, err)
		}
		s.machines = append(s.machines, m)
	}
	return s, nil
}

// RunID returns the identifier attached to this run's records.
func (s *Simulator) RunID() string { return s.runID }

// Seed returns the run seed, drawn from wall time when none was configured.
func (s *Simulator) Seed() int64 { return s.seed }

// Start returns the wall-clock time of simulated minute zero.
func (s *Simulator) Start() time.Time { return s.start }

// Run drives the machines to the horizon, then flushes the writer and
// reports the summary. A cancelled ctx stops the run early but still
// flushes what was produced. Engine failures are returned with the partial
// summary.
func (s *Simulator) Run(ctx context.Context) (Summary, error) {
	log := logging.FromContext(ctx)
	s.mu.Lock()
	if s.running || s.finished {
		s.mu.Unlock()
		return Summary{}, fmt.Errorf("simulation %s already started", s.runID)
	}
	s.running = true
	s.mu.Unlock()

	for _, m := range s.machines {
		log.Info("machine registered", "machine", m.ID(), "interval", s.cfg.IntervalMinutes)
	}
	log.Info("simulation starting",
		"run_id", s.runID,
		"seed", s.seed,
		"agents", len(s.machines),
		"horizon", s.cfg.Horizon,
		"interval", s.cfg.IntervalMinutes,
		"profile", s.profile.Name,
		"start", s.start.Format(telemetry.TimestampLayout),
	)

	res, runErr := s.sched.Run(ctx)

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()
	if err := flushWriter(flushCtx, s.writer); err != nil {
		log.Error("flush failed", "err", err)
		if runErr == nil {
			runErr = fmt.Errorf("flush: %w", err)
		}
	}

	s.mu.Lock()
	s.running = false
	s.finished = true
	s.mu.Unlock()

	sum := s.summary(res)
	log.Info("simulation finished",
		"run_id", sum.RunID,
		"reason", sum.Reason,
		"records", sum.Records,
		"delivered", sum.Delivered,
		"failures", sum.Failures,
		"simulated_minutes", sum.SimulatedMinutes,
	)
	return sum, runErr
}

func (s *Simulator) summary(res engine.Result) Summary {
	delivered, failed, lastErr := s.stats.Totals()
	sum := Summary{
		RunID:            s.runID,
		Seed:             s.seed,
		Agents:           len(s.machines),
		Records:          s.records(),
		Delivered:        delivered,
		Failures:         failed,
		SimulatedMinutes: res.Clock,
		Wakeups:          res.Wakeups,
		Reason:           res.Reason,
	}
	if lastErr != nil {
		sum.LastError = lastErr.Error()
	}
	return sum
}

func (s *Simulator) records() int {
	n := 0
	for _, m := range s.machines {
		n += m.Records()
	}
	return n
}

// Status reports the live state of the run.
func (s *Simulator) Status() Status {
	s.mu.Lock()
	running, finished := s.running, s.finished
	s.mu.Unlock()
	delivered, failed, lastErr := s.stats.Totals()
	st := Status{
		RunID:     s.runID,
		Seed:      s.seed,
		Profile:   s.profile.Name,
		Running:   running,
		Finished:  finished,
		SimMinute: engine.Minutes(s.simMinute.Load()),
		Horizon:   engine.Minutes(s.cfg.Horizon),
		Start:     s.start,
		Agents:    len(s.machines),
		Records:   s.records(),
		Delivered: delivered,
		Failures:  failed,
		Sinks:     s.stats.Snapshot(),
	}
	if lastErr != nil {
		st.LastError = lastErr.Error()
	}
	return st
}

// Machines returns a snapshot of every machine in registration order.
func (s *Simulator) Machines() []MachineState {
	out := make([]MachineState, len(s.machines))
	for i, m := range s.machines {
		out[i] = m.State()
	}
	return out
}
