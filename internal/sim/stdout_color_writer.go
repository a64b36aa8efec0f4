// ColorStdoutWriter prints human-friendly, colorized telemetry to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"factory-sim/internal/telemetry"
)

var (
	styleTime    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleMachine = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleMetric  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	styleCode    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	statusStyles = map[telemetry.Status]lipgloss.Style{
		telemetry.StatusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		telemetry.StatusIdle:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		telemetry.StatusFault:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		telemetry.StatusOffline: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
)

// statusStyle returns the style for s, falling back to plain text for
// statuses defined by custom profiles.
func statusStyle(s telemetry.Status) lipgloss.Style {
	if st, ok := statusStyles[s]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

// ColorStdoutWriter prints one styled line per record.
type ColorStdoutWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter() *ColorStdoutWriter {
	return &ColorStdoutWriter{out: os.Stdout}
}

// formatRecordLine renders rec on a single line.
func formatRecordLine(rec telemetry.Record) string {
	var b strings.Builder
	b.WriteString(styleTime.Render("[" + rec.Timestamp.Format(telemetry.TimestampLayout) + "]"))
	b.WriteByte(' ')
	b.WriteString(styleMachine.Render(fmt.Sprintf("%-4s", rec.MachineID)))
	b.WriteByte(' ')
	b.WriteString(statusStyle(rec.Status).Render(fmt.Sprintf("%-8s", rec.Status)))
	b.WriteString(styleMetric.Render(fmt.Sprintf(" temp=%.2f energy=%.2f vib=%.2f tput=%d",
		rec.Temperature, rec.EnergyKWh, rec.Vibration, rec.Throughput)))
	if rec.ErrorCode != nil {
		b.WriteByte(' ')
		b.WriteString(styleCode.Render("code=" + *rec.ErrorCode))
	}
	return b.String()
}

// Write outputs a single record in colorized format.
func (w *ColorStdoutWriter) Write(rec telemetry.Record) error {
	line := formatRecordLine(rec)
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintln(w.out, line)
	return err
}

// WriteBatch outputs multiple records.
func (w *ColorStdoutWriter) WriteBatch(recs []telemetry.Record) error {
	for _, r := range recs {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}
