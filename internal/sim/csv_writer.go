package sim

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"

	"factory-sim/internal/telemetry"
)

// CSVWriter dumps records as CSV with a header row in schema order.
type CSVWriter struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter creates path and writes the header.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv: %w", err)
	}
	w, err := newCSVWriter(f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func newCSVWriter(out io.Writer, closer io.Closer) (*CSVWriter, error) {
	w := &CSVWriter{w: csv.NewWriter(out), closer: closer}
	if err := w.w.Write(telemetry.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return w, nil
}

// Write appends one row.
func (c *CSVWriter) Write(rec telemetry.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(rec.CSVRow())
}

// WriteBatch appends multiple rows.
func (c *CSVWriter) WriteBatch(recs []telemetry.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range recs {
		if err := c.w.Write(r.CSVRow()); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes buffered rows to the underlying file.
func (c *CSVWriter) Flush(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Flush()
	return c.w.Error()
}

// Close flushes and closes the file.
func (c *CSVWriter) Close() error {
	if err := c.Flush(context.Background()); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
