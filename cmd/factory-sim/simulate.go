package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"factory-sim/internal/admin"
	"factory-sim/internal/config"
	"factory-sim/internal/logging"
	"factory-sim/internal/profile"
	"factory-sim/internal/sim"
)

var (
	simConfigPath   string
	simAgents       int
	simHorizon      int
	simInterval     int
	simSeed         int64
	simProfile      string
	simCSV          string
	simLogFile      string
	simCollectorURL string
	simPrintOnly    bool
	simTUI          bool
	simAdminAddr    string
	simDeliveryMode string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the machine telemetry simulation",
	Long:  "simulate advances every machine through simulated time up to the horizon, emitting one reading per machine per interval.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig(simConfigPath)
		if err != nil {
			return err
		}
		if simConfigPath == "" {
			cfg.Sinks.CSVPath = config.DefaultCSVPath
		}
		applySimulateFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		prof, err := profile.Resolve(cfg.Profile)
		if err != nil {
			return err
		}
		if simTUI {
			// the alt screen owns the terminal
			ctx = logging.NewContext(ctx, logging.NewWithWriter(io.Discard, "error"))
		}
		log := logging.FromContext(ctx)

		runID := uuid.NewString()
		ws, err := newWriters(ctx, cfg, writerOptions{printOnly: simPrintOnly, tui: simTUI, runID: runID})
		if err != nil {
			return err
		}
		defer ws.Close()
		log.Info("sinks configured", "sinks", ws.names, "delivery", cfg.Delivery.Mode)

		simulator, err := sim.NewSimulator(cfg, prof, ws.writer, ws.stats, sim.WithRunID(runID))
		if err != nil {
			return err
		}

		if simAdminAddr != "" {
			srv := admin.NewServer(simulator, ws.recent)
			go func() {
				if err := srv.Start(ctx, simAdminAddr); err != nil {
					log.Error("admin server failed", "err", err)
				}
			}()
			if ws.tui != nil {
				ws.tui.SetAdminAddr(simAdminAddr)
			}
		}

		sum, runErr := simulator.Run(ctx)
		if err := ws.Close(); err != nil {
			log.Error("closing sinks", "err", err)
		}
		printSummary(cmd.OutOrStdout(), sum)
		if runErr != nil {
			return runErr
		}

		if simAdminAddr != "" && ctx.Err() == nil {
			log.Info("run finished, admin server still serving; interrupt to exit", "addr", simAdminAddr)
			<-ctx.Done()
		}
		return nil
	},
}

// loadConfig reads path, or starts from the built-in defaults when path is
// empty. Environment overrides apply either way.
func loadConfig(path string) (*config.SimulationConfig, error) {
	if path == "" {
		cfg := config.Default()
		cfg.ApplyEnv()
		return cfg, nil
	}
	return config.Load(path)
}

// applySimulateFlags lets explicitly set flags override the configuration.
func applySimulateFlags(cmd *cobra.Command, cfg *config.SimulationConfig) {
	flags := cmd.Flags()
	if flags.Changed("agents") {
		cfg.AgentCount = simAgents
	}
	if flags.Changed("horizon") {
		cfg.Horizon = simHorizon
	}
	if flags.Changed("interval") {
		cfg.IntervalMinutes = simInterval
	}
	if flags.Changed("seed") {
		seed := simSeed
		cfg.Seed = &seed
	}
	if flags.Changed("profile") {
		cfg.Profile = simProfile
	}
	if flags.Changed("csv") {
		cfg.Sinks.CSVPath = simCSV
	}
	if flags.Changed("log-file") {
		cfg.Sinks.LogPath = simLogFile
	}
	if flags.Changed("collector-url") {
		cfg.Sinks.CollectorURL = simCollectorURL
	}
	if flags.Changed("delivery-mode") {
		cfg.Delivery.Mode = simDeliveryMode
	}
}

func printSummary(w io.Writer, sum sim.Summary) {
	p := message.NewPrinter(language.English)
	elapsed := time.Duration(sum.SimulatedMinutes) * time.Minute
	p.Fprintf(w, "Run %s (seed %d) stopped: %s\n", sum.RunID, sum.Seed, sum.Reason)
	p.Fprintf(w, "  machines:           %d\n", sum.Agents)
	p.Fprintf(w, "  records generated:  %d\n", sum.Records)
	p.Fprintf(w, "  deliveries ok:      %d\n", sum.Delivered)
	p.Fprintf(w, "  delivery failures:  %d\n", sum.Failures)
	p.Fprintf(w, "  simulated time:     %d min (%s)\n", int64(sum.SimulatedMinutes), elapsed)
	if sum.LastError != "" {
		fmt.Fprintf(w, "  last error:         %s\n", sum.LastError)
	}
}

func init() {
	flags := simulateCmd.Flags()
	flags.StringVar(&simConfigPath, "config", "", "Path to simulation configuration YAML (built-in defaults when empty)")
	flags.IntVar(&simAgents, "agents", 3, "Number of machines")
	flags.IntVar(&simHorizon, "horizon", 288, "Simulated minutes to run")
	flags.IntVar(&simInterval, "interval", 5, "Minutes between readings of one machine")
	flags.Int64Var(&simSeed, "seed", 0, "Run seed for reproducible output (random when unset)")
	flags.StringVar(&simProfile, "profile", profile.DefaultName, "Built-in profile name or path to a profile YAML")
	flags.StringVar(&simCSV, "csv", "", "Write records to this CSV file (factory_data.csv without --config; empty disables)")
	flags.StringVar(&simLogFile, "log-file", "", "Write records to this JSONL file for later replay")
	flags.StringVar(&simCollectorURL, "collector-url", "", "POST every record as JSON to this URL")
	flags.BoolVar(&simPrintOnly, "print-only", false, "Print records to STDOUT instead of sending them to remote sinks")
	flags.BoolVar(&simTUI, "tui", false, "Show a live terminal dashboard of machine states")
	flags.StringVar(&simAdminAddr, "admin-addr", "", "Serve status, machines and metrics on this address (e.g. :8080)")
	flags.StringVar(&simDeliveryMode, "delivery-mode", config.DeliveryAsync, "Remote delivery mode: async, buffered or sync")
}
