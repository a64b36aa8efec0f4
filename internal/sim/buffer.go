package sim

import (
	"context"
	"sync"

	"factory-sim/internal/logging"
	"factory-sim/internal/telemetry"
)

const bufferBatchSize = 500

// Buffer holds records for a remote sink and delivers them in batches when
// flushed after the horizon.
type Buffer struct {
	name   string
	sink   RecordWriter
	stats  *DeliveryStats
	policy RetryPolicy

	mu   sync.Mutex
	recs []telemetry.Record
}

// NewBuffer creates an empty buffer in front of sink.
func NewBuffer(name string, sink RecordWriter, stats *DeliveryStats, policy RetryPolicy) *Buffer {
	return &Buffer{name: name, sink: sink, stats: stats, policy: policy}
}

// Write appends rec to the buffer.
func (b *Buffer) Write(rec telemetry.Record) error {
	b.mu.Lock()
	b.recs = append(b.recs, rec)
	b.mu.Unlock()
	return nil
}

// Len returns the number of records awaiting delivery.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.recs)
}

// Flush delivers every buffered record. Batch-capable sinks receive chunks
// of bufferBatchSize; a failed chunk fails all of its records.
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	recs := b.recs
	b.recs = nil
	b.mu.Unlock()

	log := logging.FromContext(ctx)
	log.Debug("flushing buffer", "sink", b.name, "records", len(recs))

	bw, batched := b.sink.(batchWriter)
	for start := 0; start < len(recs); start += bufferBatchSize {
		end := min(start+bufferBatchSize, len(recs))
		chunk := recs[start:end]
		if batched {
			err := deliverWithRetry(ctx, b.name, b.policy, func() error { return bw.WriteBatch(chunk) })
			b.account(chunk, err)
			if err != nil {
				log.Warn("batch delivery failed", "sink", b.name, "records", len(chunk), "err", err)
			}
			continue
		}
		for _, rec := range chunk {
			err := deliverWithRetry(ctx, b.name, b.policy, func() error { return b.sink.Write(rec) })
			b.account([]telemetry.Record{rec}, err)
		}
	}
	return flushWriter(ctx, b.sink)
}

func (b *Buffer) account(recs []telemetry.Record, err error) {
	for _, rec := range recs {
		if err != nil {
			b.stats.Failure(newDeliveryError(b.name, rec, err))
			continue
		}
		b.stats.Success(b.name)
	}
}
