package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"factory-sim/internal/telemetry"
)

// RecordWriter is the sink interface. A nil error acknowledges the record.
type RecordWriter interface {
	Write(telemetry.Record) error
}

// Optional: writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.Record) error
}

// Flusher is implemented by writers that hold records or buffered bytes
// until the run ends.
type Flusher interface {
	Flush(ctx context.Context) error
}

// ErrQueueFull is reported when an async dispatcher cannot accept a record.
var ErrQueueFull = errors.New("delivery queue full")

// DeliveryError reports a record that a sink did not accept.
type DeliveryError struct {
	Sink      string
	MachineID string
	Timestamp time.Time
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s@%s to %s: %v", e.MachineID, e.Timestamp.Format(telemetry.TimestampLayout), e.Sink, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func newDeliveryError(sink string, rec telemetry.Record, err error) *DeliveryError {
	return &DeliveryError{Sink: sink, MachineID: rec.MachineID, Timestamp: rec.Timestamp, Err: err}
}

// flushWriter flushes w if it supports it.
func flushWriter(ctx context.Context, w RecordWriter) error {
	if f, ok := w.(Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}
