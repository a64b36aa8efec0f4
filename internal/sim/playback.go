package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"factory-sim/internal/telemetry"
)

// ReplayLog replays records from a JSONL stream to writer and returns how
// many were replayed. Gaps between timestamps are slept for, divided by
// speed. If speed <= 0, no artificial delay is inserted. Delivery errors are
// left to the delivery stats; any other writer error stops the replay.
func ReplayLog(ctx context.Context, r io.Reader, writer RecordWriter, speed float64) (int, error) {
	dec := json.NewDecoder(r)
	var (
		prev time.Time
		n    int
	)
	for {
		var rec telemetry.Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("record %d: %w", n+1, err)
		}
		if !prev.IsZero() && speed > 0 {
			diff := time.Duration(float64(rec.Timestamp.Sub(prev)) / speed)
			if diff > 0 {
				select {
				case <-time.After(diff):
				case <-ctx.Done():
					return n, ctx.Err()
				}
			}
		}
		if err := writer.Write(rec); err != nil {
			var de *DeliveryError
			if !errors.As(err, &de) {
				return n, err
			}
		}
		n++
		prev = rec.Timestamp
	}
}

// ReplayLogFile opens a file and replays its records.
func ReplayLogFile(ctx context.Context, path string, writer RecordWriter, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReplayLog(ctx, f, writer, speed)
}
