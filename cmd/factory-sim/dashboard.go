package main

import (
	"github.com/spf13/cobra"

	"factory-sim/internal/dashboard"
	"factory-sim/internal/logging"
)

var (
	dashboardOut        string
	dashboardConfigPath string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render the Grafana dashboard",
	Long:  "dashboard renders the Grafana dashboard for the GreptimeDB telemetry table. GREPTIMEDB_DATASOURCE_UID must be set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(dashboardConfigPath)
		if err != nil {
			return err
		}
		table := cfg.Sinks.Greptime.Table
		if err := dashboard.Render(dashboardOut, table); err != nil {
			return err
		}
		logging.FromContext(cmd.Context()).Info("dashboard rendered", "dir", dashboardOut, "table", table)
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardOut, "out", "build", "Output directory")
	dashboardCmd.Flags().StringVar(&dashboardConfigPath, "config", "", "Path to simulation configuration YAML for the GreptimeDB table name")
}
