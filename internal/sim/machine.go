package sim

import (
	"context"
	"sync"
	"time"

	"factory-sim/internal/engine"
	"factory-sim/internal/logging"
	"factory-sim/internal/telemetry"
)

// progressEvery is how many records a machine emits between progress logs.
const progressEvery = 50

// MachineState is the externally visible state of a machine.
type MachineState struct {
	ID          string           `json:"id"`
	Status      telemetry.Status `json:"status,omitempty"`
	Records     int              `json:"records"`
	LastSeen    time.Time        `json:"last_seen"`
	Temperature float64          `json:"temperature"`
	EnergyKWh   float64          `json:"energy_kwh"`
	Vibration   float64          `json:"vibration"`
	Throughput  int              `json:"throughput"`
	ErrorCode   string           `json:"error_code,omitempty"`
	Done        bool             `json:"done"`
}

// Machine is a simulated production machine. On every wake-up it emits one
// reading and schedules its next one, until the next one would fall past
// the horizon.
type Machine struct {
	id       string
	interval engine.Minutes
	gen      *telemetry.Generator
	start    time.Time
	sink     RecordWriter

	mu      sync.RWMutex
	records int
	last    telemetry.Record
	done    bool
}

// NewMachine creates a machine emitting to sink every interval minutes.
// Record timestamps are start plus the simulated time of the wake-up.
func NewMachine(id string, interval engine.Minutes, gen *telemetry.Generator, start time.Time, sink RecordWriter) *Machine {
	return &Machine{id: id, interval: interval, gen: gen, start: start, sink: sink}
}

func (m *Machine) ID() string { return m.id }

// Wake implements engine.Process. Delivery failures are logged and left to
// the delivery layer; they never stop the machine.
func (m *Machine) Wake(ctx context.Context, es engine.EventScheduler) error {
	log := logging.FromContext(ctx)
	now := es.Now()
	rec := m.gen.Generate(m.id, m.start.Add(now.Duration()))

	m.mu.Lock()
	m.records++
	m.last = rec
	n := m.records
	m.mu.Unlock()
	recordsGenerated.WithLabelValues(string(rec.Status)).Inc()

	if err := m.sink.Write(rec); err != nil {
		log.Warn("record not delivered", "machine", m.id, "sim_minute", now, "err", err)
	}
	if n%progressEvery == 0 {
		log.Info("machine progress", "machine", m.id, "records", n, "sim_minute", now)
	}

	next := now + m.interval
	if next > es.Horizon() {
		m.mu.Lock()
		m.done = true
		m.mu.Unlock()
		log.Debug("machine finished", "machine", m.id, "records", n)
		return nil
	}
	return es.Schedule(next, m)
}

// Records returns the number of records emitted so far.
func (m *Machine) Records() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records
}

// State returns a snapshot of the machine.
func (m *Machine) State() MachineState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := MachineState{ID: m.id, Records: m.records, Done: m.done}
	if m.records > 0 {
		st.Status = m.last.Status
		st.LastSeen = m.last.Timestamp
		st.Temperature = m.last.Temperature
		st.EnergyKWh = m.last.EnergyKWh
		st.Vibration = m.last.Vibration
		st.Throughput = m.last.Throughput
		st.ErrorCode = m.last.ErrorCodeString()
	}
	return st
}
