// Grafana dashboard rendering for the GreptimeDB telemetry table
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"factory-sim/internal/telemetry"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Panel is one dashboard panel backed by a SQL query.
type Panel struct {
	Title  string
	Type   string
	Format string
	Query  string
	X, Y   int
}

func metricPanel(table, title, column string, x, y int) Panel {
	return Panel{
		Title:  title,
		Type:   "timeseries",
		Format: "time_series",
		Query: fmt.Sprintf("SELECT ts AS time, machine_id AS metric, %s FROM %s WHERE $__timeFilter(ts) AND machine_id IN ($machine) ORDER BY ts",
			column, table),
		X: x,
		Y: y,
	}
}

// Panels returns the panels rendered into the dashboard, querying table.
func Panels(table string) []Panel {
	return []Panel{
		metricPanel(table, "Temperature", "temperature", 0, 0),
		metricPanel(table, "Energy (kWh)", "energy_kwh", 12, 0),
		metricPanel(table, "Vibration", "vibration", 0, 8),
		metricPanel(table, "Throughput", "throughput", 12, 8),
		{
			Title:  "Status distribution",
			Type:   "piechart",
			Format: "table",
			Query:  fmt.Sprintf("SELECT status, count(*) AS readings FROM %s WHERE $__timeFilter(ts) GROUP BY status", table),
			X:      0,
			Y:      16,
		},
		{
			Title:  "Fault codes",
			Type:   "table",
			Format: "table",
			Query:  fmt.Sprintf("SELECT machine_id, error_code, count(*) AS faults FROM %s WHERE $__timeFilter(ts) AND status = 'Fault' GROUP BY machine_id, error_code ORDER BY faults DESC", table),
			X:      12,
			Y:      16,
		},
	}
}

// Render parses the dashboard templates and writes rendered dashboards to
// outDir, querying table (the default telemetry table when empty).
// Datasource UIDs come from the environment.
func Render(outDir, table string) error {
	if table == "" {
		table = telemetry.TelemetryTableName
	}
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
		"table":  func() string { return table },
		"panels": func() []Panel { return Panels(table) },
		"add":    func(a, b int) int { return a + b },
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	names, err := templates.ReadDir("templates")
	if err != nil {
		return err
	}
	for _, entry := range names {
		name := entry.Name()
		t, err := template.New(name).Funcs(funcMap).ParseFS(templates, "templates/"+name)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, nil); err != nil {
			f.Close()
			os.Remove(outPath)
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
