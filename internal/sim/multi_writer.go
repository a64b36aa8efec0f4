package sim

import (
	"context"
	"errors"

	"factory-sim/internal/telemetry"
)

// MultiWriter fans records out to multiple writers. Every writer sees every
// record even when an earlier one fails.
type MultiWriter struct {
	writers []RecordWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...RecordWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Add appends a writer.
func (mw *MultiWriter) Add(w RecordWriter) { mw.writers = append(mw.writers, w) }

// Len returns the number of writers.
func (mw *MultiWriter) Len() int { return len(mw.writers) }

// Write sends a record to all writers and joins their errors.
func (mw *MultiWriter) Write(rec telemetry.Record) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.Write(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteBatch sends multiple records to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(recs []telemetry.Record) error {
	var errs []error
	for _, w := range mw.writers {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(recs); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, r := range recs {
			if err := w.Write(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Flush flushes every writer that supports it.
func (mw *MultiWriter) Flush(ctx context.Context) error {
	var errs []error
	for _, w := range mw.writers {
		if err := flushWriter(ctx, w); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
