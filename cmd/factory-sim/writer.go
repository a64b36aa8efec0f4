package main

import (
	"context"
	"errors"
	"io"
	"os"

	"golang.org/x/term"

	"factory-sim/internal/config"
	"factory-sim/internal/sim"
)

// recentPerMachine is how many records per machine the admin server can show.
const recentPerMachine = 100

type writerOptions struct {
	printOnly bool
	tui       bool
	runID     string
}

// writerSet is the fan-out of sinks for one run plus what is needed to
// report on and close them.
type writerSet struct {
	writer  *sim.MultiWriter
	stats   *sim.DeliveryStats
	recent  *sim.MemoryWriter
	tui     *sim.TUIWriter
	names   []string
	closers []io.Closer
}

func (ws *writerSet) add(name string, w sim.RecordWriter) {
	ws.writer.Add(w)
	ws.names = append(ws.names, name)
}

// Close flushes and closes every sink. It is safe to call more than once.
func (ws *writerSet) Close() error {
	var errs []error
	for _, c := range ws.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	ws.closers = nil
	if ws.tui != nil {
		_ = ws.tui.Close()
		ws.tui = nil
	}
	return errors.Join(errs...)
}

// stdoutWriter picks colored output for terminals and JSON lines otherwise.
func stdoutWriter() sim.RecordWriter {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return sim.NewColorStdoutWriter()
	}
	return sim.NewJSONStdoutWriter()
}

// newWriters sets up sinks from the configuration. Local sinks are written
// synchronously; remote sinks go through the configured delivery mode. With
// printOnly, remote sinks are skipped and records go to STDOUT.
func newWriters(ctx context.Context, cfg *config.SimulationConfig, opts writerOptions) (*writerSet, error) {
	ws := &writerSet{
		writer: sim.NewMultiWriter(),
		stats:  sim.NewDeliveryStats(),
		recent: sim.NewMemoryWriter(recentPerMachine),
	}
	ws.writer.Add(ws.recent)

	if !opts.printOnly {
		if url := cfg.Sinks.CollectorURL; url != "" {
			hw := sim.NewHTTPWriter(url, cfg.Sinks.CollectorTimeout, opts.runID)
			ws.add("collector", sim.NewDelivery(ctx, "collector", hw, cfg.Delivery, ws.stats))
		}
		if cfg.Sinks.Greptime.Endpoint != "" {
			gw, err := sim.NewGreptimeDBWriter(cfg.Sinks.Greptime, opts.runID)
			if err != nil {
				return nil, err
			}
			ws.add("greptime", sim.NewDelivery(ctx, "greptime", gw, cfg.Delivery, ws.stats))
		}
	}
	if path := cfg.Sinks.CSVPath; path != "" {
		cw, err := sim.NewCSVWriter(path)
		if err != nil {
			ws.Close()
			return nil, err
		}
		ws.closers = append(ws.closers, cw)
		ws.add("csv", sim.Track(ctx, "csv", cw, ws.stats))
	}
	if path := cfg.Sinks.LogPath; path != "" {
		fw, err := sim.NewFileWriter(path)
		if err != nil {
			ws.Close()
			return nil, err
		}
		ws.closers = append(ws.closers, fw)
		ws.add("jsonl", sim.Track(ctx, "jsonl", fw, ws.stats))
	}

	switch {
	case opts.tui:
		ws.tui = sim.NewTUIWriter(cfg)
		ws.add("tui", sim.Track(ctx, "tui", ws.tui, ws.stats))
	case opts.printOnly || cfg.Sinks.Stdout || len(ws.names) == 0:
		ws.add("stdout", sim.Track(ctx, "stdout", stdoutWriter(), ws.stats))
	}
	return ws, nil
}
