package sim

import (
	"context"
	"fmt"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"factory-sim/internal/config"
	"factory-sim/internal/telemetry"
)

const greptimeWriteTimeout = 10 * time.Second

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes telemetry to GreptimeDB via the ingester client.
// The table is created on first write with machine_id and run_id as tags.
type GreptimeDBWriter struct {
	client greptimeClient
	table  string
	runID  string
}

// NewGreptimeDBWriter connects to the configured GreptimeDB instance.
func NewGreptimeDBWriter(cfg config.Greptime, runID string) (*GreptimeDBWriter, error) {
	gcfg := greptime.NewConfig(cfg.Endpoint).WithPort(cfg.Port).WithDatabase(cfg.Database)
	client, err := greptime.NewClient(gcfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	name := cfg.Table
	if name == "" {
		name = telemetry.TelemetryTableName
	}
	return &GreptimeDBWriter{client: client, table: name, runID: runID}, nil
}

// Write inserts a single record.
func (w *GreptimeDBWriter) Write(rec telemetry.Record) error {
	return w.WriteBatch([]telemetry.Record{rec})
}

// WriteBatch inserts multiple records in one request.
func (w *GreptimeDBWriter) WriteBatch(recs []telemetry.Record) error {
	if len(recs) == 0 {
		return nil
	}
	tbl, err := w.newTable()
	if err != nil {
		return err
	}
	for _, r := range recs {
		if err := tbl.AddRow(
			r.MachineID,
			w.runID,
			string(r.Status),
			r.Temperature,
			r.EnergyKWh,
			r.Vibration,
			int64(r.Throughput),
			r.ErrorCodeString(),
			r.Timestamp,
		); err != nil {
			return fmt.Errorf("add row: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), greptimeWriteTimeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptime write: %w", err)
	}
	return nil
}

func (w *GreptimeDBWriter) newTable() (*table.Table, error) {
	tbl, err := table.New(w.table)
	if err != nil {
		return nil, fmt.Errorf("new table: %w", err)
	}
	tags := []string{"machine_id", "run_id"}
	for _, c := range tags {
		if err := tbl.AddTagColumn(c, types.STRING); err != nil {
			return nil, err
		}
	}
	fields := []struct {
		name string
		typ  types.ColumnType
	}{
		{"status", types.STRING},
		{"temperature", types.FLOAT64},
		{"energy_kwh", types.FLOAT64},
		{"vibration", types.FLOAT64},
		{"throughput", types.INT64},
		{"error_code", types.STRING},
	}
	for _, f := range fields {
		if err := tbl.AddFieldColumn(f.name, f.typ); err != nil {
			return nil, err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}
	return tbl, nil
}
