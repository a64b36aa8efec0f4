package sim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"factory-sim/internal/telemetry"
)

// maxErrorBody caps how much of a rejected response body is kept.
const maxErrorBody = 512

// StatusError is returned when the collector answers with anything but 200.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collector returned %d: %s", e.Code, e.Body)
}

// HTTPWriter posts each record as JSON to a collector endpoint.
type HTTPWriter struct {
	url    string
	runID  string
	client *http.Client
}

// NewHTTPWriter creates a writer posting to url. The run ID is sent in the
// X-Run-ID header.
func NewHTTPWriter(url string, timeout time.Duration, runID string) *HTTPWriter {
	return &HTTPWriter{url: url, runID: runID, client: &http.Client{Timeout: timeout}}
}

// Write posts a single record. Only 200 OK acknowledges it.
func (w *HTTPWriter) Write(rec telemetry.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.runID != "" {
		req.Header.Set("X-Run-ID", w.runID)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
