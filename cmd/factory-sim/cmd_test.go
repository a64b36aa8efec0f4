package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"factory-sim/internal/config"
)

func TestSimulateCommand(t *testing.T) {
	t.Setenv("COLLECTOR_URL", "")
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	path := filepath.Join(t.TempDir(), "factory_data.csv")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"simulate",
		"--agents", "3", "--horizon", "10", "--interval", "5", "--seed", "42",
		"--csv", path, "--log-level", "error"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected header and 9 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Timestamp,MachineID,Status") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	summary := out.String()
	for _, want := range []string{"records generated:  9", "delivery failures:  0", "simulated time:     10 min"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestApplySimulateFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "simulate"}
	fs := cmd.Flags()
	fs.IntVar(&simAgents, "agents", 3, "")
	fs.IntVar(&simHorizon, "horizon", 288, "")
	fs.Int64Var(&simSeed, "seed", 0, "")
	fs.StringVar(&simDeliveryMode, "delivery-mode", config.DeliveryAsync, "")
	if err := fs.Parse([]string{"--agents", "7", "--seed", "0", "--delivery-mode", "sync"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg := config.Default()
	applySimulateFlags(cmd, cfg)
	if cfg.AgentCount != 7 || cfg.Seed == nil || *cfg.Seed != 0 || cfg.Delivery.Mode != config.DeliverySync {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Horizon != 288 {
		t.Fatalf("unset flag overrode horizon: %d", cfg.Horizon)
	}
}

func TestProfilesCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	profilesShow = ""
	rootCmd.SetArgs([]string{"profiles"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("profiles: %v", err)
	}
	for _, name := range []string{"default", "aging-line", "night-shift"} {
		if !strings.Contains(out.String(), name) {
			t.Fatalf("profile %s not listed:\n%s", name, out.String())
		}
	}

	out.Reset()
	rootCmd.SetArgs([]string{"profiles", "--show", "default"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("profiles --show: %v", err)
	}
	if !strings.Contains(out.String(), "status: Fault") {
		t.Fatalf("expected YAML profile:\n%s", out.String())
	}
	profilesShow = ""
}

func TestSimulateDefaultCSV(t *testing.T) {
	t.Setenv("COLLECTOR_URL", "")
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"simulate",
		"--agents", "2", "--horizon", "5", "--interval", "5", "--seed", "7",
		"--log-level", "error"})
	simCSV = ""
	simulateCmd.Flags().Lookup("csv").Changed = false
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	b, err := os.ReadFile(config.DefaultCSVPath)
	if err != nil {
		t.Fatalf("default csv not written: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(string(b)), "\n"); len(lines) != 5 {
		t.Fatalf("expected header and 4 rows, got %d lines", len(lines))
	}
}

func TestDashboardCommandUsesConfiguredTable(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "uid1")
	t.Setenv("GREPTIMEDB_TABLE", "line_b")
	dir := t.TempDir()

	rootCmd.SetArgs([]string{"dashboard", "--out", dir, "--log-level", "error"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "grafana-dashboard.json"))
	if err != nil {
		t.Fatalf("read dashboard: %v", err)
	}
	if !strings.Contains(string(b), "FROM line_b") {
		t.Fatalf("dashboard does not query the configured table")
	}
}
