package sim

import (
	"errors"
	"sync"
)

// SinkStats counts delivery outcomes for one sink.
type SinkStats struct {
	Delivered int64  `json:"delivered"`
	Failed    int64  `json:"failed"`
	LastError string `json:"last_error,omitempty"`
}

// DeliveryStats aggregates delivery outcomes across sinks. It is safe for
// concurrent use by dispatcher workers.
type DeliveryStats struct {
	mu      sync.Mutex
	sinks   map[string]*SinkStats
	lastErr error
}

// NewDeliveryStats returns empty stats.
func NewDeliveryStats() *DeliveryStats {
	return &DeliveryStats{sinks: make(map[string]*SinkStats)}
}

func (s *DeliveryStats) sink(name string) *SinkStats {
	st, ok := s.sinks[name]
	if !ok {
		st = &SinkStats{}
		s.sinks[name] = st
	}
	return st
}

// Success records an acknowledged record.
func (s *DeliveryStats) Success(sink string) {
	s.mu.Lock()
	s.sink(sink).Delivered++
	s.mu.Unlock()
	deliveryTotal.WithLabelValues(sink, "success").Inc()
}

// Failure records a rejected record.
func (s *DeliveryStats) Failure(err *DeliveryError) {
	s.mu.Lock()
	st := s.sink(err.Sink)
	st.Failed++
	st.LastError = err.Error()
	s.lastErr = err
	s.mu.Unlock()
	result := "failure"
	if errors.Is(err, ErrQueueFull) {
		result = "dropped"
	}
	deliveryTotal.WithLabelValues(err.Sink, result).Inc()
}

// Totals sums all sinks and returns the most recent failure.
func (s *DeliveryStats) Totals() (delivered, failed int64, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.sinks {
		delivered += st.Delivered
		failed += st.Failed
	}
	return delivered, failed, s.lastErr
}

// Snapshot returns a copy of the per-sink counters.
func (s *DeliveryStats) Snapshot() map[string]SinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]SinkStats, len(s.sinks))
	for name, st := range s.sinks {
		out[name] = *st
	}
	return out
}
