package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"factory-sim/internal/logging"
	"factory-sim/internal/sim"
	"factory-sim/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

//go:embed templates/index.html
var content embed.FS

// Server exposes the state of a running simulation over HTTP.
type Server struct {
	Sim     *sim.Simulator
	Records *sim.MemoryWriter
	tpl     *template.Template
	mux     *http.ServeMux
}

// NewServer creates a server for s. recent may be nil, in which case
// /records answers 404.
func NewServer(s *sim.Simulator, recent *sim.MemoryWriter) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	srv := &Server{Sim: s, Records: recent, tpl: tpl, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /machines", s.handleMachines)
	s.mux.HandleFunc("GET /records", s.handleRecords)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	log := logging.FromContext(ctx)
	hs := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}

	errChan := make(chan error, 1)
	go func() {
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	log.Info("admin server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Status   sim.Status
		Machines []sim.MachineState
	}{
		Status:   s.Sim.Status(),
		Machines: s.Sim.Machines(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		logging.FromContext(r.Context()).Error("render index", "err", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Status())
}

func (s *Server) handleMachines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Machines())
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if s.Records == nil {
		http.NotFound(w, r)
		return
	}
	id := r.URL.Query().Get("machine")
	if id == "" {
		http.Error(w, "machine query parameter required", http.StatusBadRequest)
		return
	}
	recs := s.Records.Machine(id)
	if recs == nil {
		recs = []telemetry.Record{}
	}
	writeJSON(w, recs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}
