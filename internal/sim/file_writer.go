package sim

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"factory-sim/internal/telemetry"
)

// FileWriter writes records to a JSONL file that ReplayLogFile can read back.
type FileWriter struct {
	mu  sync.Mutex
	f   *os.File
	buf *bufio.Writer
	enc *json.Encoder
}

// NewFileWriter creates or truncates path.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create record log: %w", err)
	}
	buf := bufio.NewWriter(f)
	return &FileWriter{f: f, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// Write logs a single record.
func (w *FileWriter) Write(rec telemetry.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(rec)
}

// WriteBatch logs multiple records.
func (w *FileWriter) WriteBatch(recs []telemetry.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range recs {
		if err := w.enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes buffered lines to disk.
func (w *FileWriter) Flush(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Flush()
}

// Close flushes and closes the file.
func (w *FileWriter) Close() error {
	if err := w.Flush(context.Background()); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
