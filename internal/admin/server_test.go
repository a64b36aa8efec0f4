package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"factory-sim/internal/config"
	"factory-sim/internal/profile"
	"factory-sim/internal/sim"
	"factory-sim/internal/telemetry"
)

func newTestServer(t *testing.T) (*Server, *sim.Simulator) {
	t.Helper()
	cfg := config.Default()
	cfg.AgentCount = 2
	cfg.Horizon = 10
	seed := int64(5)
	cfg.Seed = &seed
	cfg.StartTime = "2025-01-02T00:00:00Z"
	prof, err := profile.Resolve(profile.DefaultName)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	recent := sim.NewMemoryWriter(10)
	s, err := sim.NewSimulator(cfg, prof, recent, nil, sim.WithRunID("run-test"))
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return NewServer(s, recent), s
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	w := get(t, srv.Handler(), "/status")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", w.Code)
	}
	var st sim.Status
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.RunID != "run-test" || !st.Finished || st.Records != 6 || st.SimMinute != 10 {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestHandleMachines(t *testing.T) {
	srv, _ := newTestServer(t)
	w := get(t, srv.Handler(), "/machines")
	var ms []sim.MachineState
	if err := json.NewDecoder(w.Body).Decode(&ms); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ms) != 2 || ms[0].ID != "M1" || ms[1].ID != "M2" {
		t.Fatalf("unexpected machines: %+v", ms)
	}
	if ms[0].Records != 3 || !ms[0].Done {
		t.Errorf("unexpected machine state: %+v", ms[0])
	}
}

func TestHandleRecords(t *testing.T) {
	srv, _ := newTestServer(t)
	w := get(t, srv.Handler(), "/records?machine=M2")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", w.Code)
	}
	var recs []telemetry.Record
	if err := json.NewDecoder(w.Body).Decode(&recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 3 || recs[0].MachineID != "M2" {
		t.Fatalf("unexpected records: %+v", recs)
	}

	if w := get(t, srv.Handler(), "/records"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without machine, got %d", w.Code)
	}
	w = get(t, srv.Handler(), "/records?machine=nope")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty list, got %s", w.Body.String())
	}
}

func TestHandleHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	if w := get(t, srv.Handler(), "/healthz"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Fatalf("unexpected health response: %d %s", w.Code, w.Body.String())
	}
	w := get(t, srv.Handler(), "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", w.Code)
	}
	if !strings.Contains(w.Body.String(), "factory_sim_records_generated_total") {
		t.Errorf("metrics missing generated records counter")
	}
}

func TestHandleIndex(t *testing.T) {
	srv, _ := newTestServer(t)
	w := get(t, srv.Handler(), "/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "run-test") || !strings.Contains(body, "<td>M1</td>") {
		t.Errorf("index missing run or machine rows")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Start returned %v", err)
	}
}
