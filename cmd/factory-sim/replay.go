package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"factory-sim/internal/logging"
	"factory-sim/internal/sim"
)

var (
	replayInput        string
	replaySpeed        float64
	replayPrintOnly    bool
	replayConfigPath   string
	replayCollectorURL string
	replayCSV          string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a JSONL record log",
	Long:  "replay feeds records from a log written by simulate --log-file back into the configured sinks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log := logging.FromContext(ctx)

		cfg, err := loadConfig(replayConfigPath)
		if err != nil {
			return err
		}
		// never write the log being replayed
		cfg.Sinks.LogPath = ""
		if cmd.Flags().Changed("collector-url") {
			cfg.Sinks.CollectorURL = replayCollectorURL
		}
		if cmd.Flags().Changed("csv") {
			cfg.Sinks.CSVPath = replayCSV
		}

		ws, err := newWriters(ctx, cfg, writerOptions{printOnly: replayPrintOnly, runID: uuid.NewString()})
		if err != nil {
			return err
		}
		defer ws.Close()

		n, replayErr := sim.ReplayLogFile(ctx, replayInput, ws.writer, replaySpeed)
		if err := ws.writer.Flush(ctx); err != nil {
			log.Error("flush failed", "err", err)
		}
		delivered, failed, lastErr := ws.stats.Totals()
		log.Info("replay finished", "records", n, "delivered", delivered, "failures", failed)
		if lastErr != nil {
			log.Warn("last delivery error", "err", lastErr)
		}
		return replayErr
	},
}

func init() {
	flags := replayCmd.Flags()
	flags.StringVar(&replayInput, "input", "", "Path to JSONL record log")
	flags.Float64Var(&replaySpeed, "speed", 0, "Playback speed multiplier against record timestamps (0 replays without delay)")
	flags.BoolVar(&replayPrintOnly, "print-only", false, "Print records to STDOUT instead of sending them to remote sinks")
	flags.StringVar(&replayConfigPath, "config", "", "Path to simulation configuration YAML for sink settings")
	flags.StringVar(&replayCollectorURL, "collector-url", "", "POST every record as JSON to this URL")
	flags.StringVar(&replayCSV, "csv", "", "Write replayed records to this CSV file")
	replayCmd.MarkFlagRequired("input")
}
