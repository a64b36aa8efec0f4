package sim

import (
	"sync"

	"factory-sim/internal/telemetry"
)

// MemoryWriter keeps records in memory. With a positive limit only the most
// recent limit records per machine are retained.
type MemoryWriter struct {
	mu      sync.RWMutex
	limit   int
	order   []string
	records map[string][]telemetry.Record
}

// NewMemoryWriter creates a writer; limit <= 0 keeps everything.
func NewMemoryWriter(limit int) *MemoryWriter {
	return &MemoryWriter{limit: limit, records: make(map[string][]telemetry.Record)}
}

func (m *MemoryWriter) Write(rec telemetry.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs, ok := m.records[rec.MachineID]
	if !ok {
		m.order = append(m.order, rec.MachineID)
	}
	recs = append(recs, rec)
	if m.limit > 0 && len(recs) > m.limit {
		recs = append(recs[:0:0], recs[len(recs)-m.limit:]...)
	}
	m.records[rec.MachineID] = recs
	return nil
}

func (m *MemoryWriter) WriteBatch(recs []telemetry.Record) error {
	for _, r := range recs {
		_ = m.Write(r)
	}
	return nil
}

// Machine returns a copy of the records held for one machine.
func (m *MemoryWriter) Machine(id string) []telemetry.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]telemetry.Record(nil), m.records[id]...)
}

// Records returns every held record, grouped by machine in first-seen order.
func (m *MemoryWriter) Records() []telemetry.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []telemetry.Record
	for _, id := range m.order {
		out = append(out, m.records[id]...)
	}
	return out
}

// Len returns the number of held records.
func (m *MemoryWriter) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, recs := range m.records {
		n += len(recs)
	}
	return n
}
