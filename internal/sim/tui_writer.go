package sim

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"factory-sim/internal/config"
	"factory-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

// recordMsg carries a record for the machine table.
type recordMsg struct{ telemetry.Record }

// adminMsg reports admin server status.
type adminMsg struct{ addr string }

const maxLogLines = 1000

// TUIWriter renders machine states and a record log using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. Quitting
// the TUI interrupts the process so the simulation stops with it.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements RecordWriter.
func (w *TUIWriter) Write(rec telemetry.Record) error {
	w.program.Send(logMsg{line: formatRecordLine(rec)})
	w.program.Send(recordMsg{rec})
	return nil
}

// WriteBatch implements batchWriter.
func (w *TUIWriter) WriteBatch(recs []telemetry.Record) error {
	for _, r := range recs {
		_ = w.Write(r)
	}
	return nil
}

// SetAdminAddr shows the admin server address in the footer.
func (w *TUIWriter) SetAdminAddr(addr string) {
	w.program.Send(adminMsg{addr: addr})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type machineRow struct {
	last    telemetry.Record
	records int
	faults  int
}

type tuiModel struct {
	cfg        *config.SimulationConfig
	table      table.Model
	vp         viewport.Model
	logs       []string
	machines   map[string]*machineRow
	admin      string
	wrap       bool
	autoscroll bool
	help       bool
	width      int
	height     int
	total      int
}

func newTUIModel(cfg *config.SimulationConfig) tuiModel {
	cols := []table.Column{
		{Title: "Machine", Width: 8},
		{Title: "Status", Width: 8},
		{Title: "Temp", Width: 7},
		{Title: "kWh", Width: 6},
		{Title: "Vib", Width: 7},
		{Title: "Tput", Width: 5},
		{Title: "Code", Width: 5},
		{Title: "Records", Width: 8},
		{Title: "Faults", Width: 7},
	}
	height := 2
	if cfg != nil && cfg.AgentCount+1 > height {
		height = cfg.AgentCount + 1
	}
	return tuiModel{
		cfg:        cfg,
		table:      table.New(table.WithColumns(cols), table.WithHeight(height)),
		vp:         viewport.New(0, 0),
		machines:   make(map[string]*machineRow),
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			case "q", "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
		case "?", "h":
			m.help = true
		default:
			if !m.autoscroll {
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case recordMsg:
		row, ok := m.machines[msg.MachineID]
		if !ok {
			row = &machineRow{}
			m.machines[msg.MachineID] = row
		}
		row.last = msg.Record
		row.records++
		if msg.Status == telemetry.StatusFault {
			row.faults++
		}
		m.total++
		m.refreshTable()
	case adminMsg:
		m.admin = msg.addr
	}
	return m, nil
}

func (m *tuiModel) refreshTable() {
	ids := make([]string, 0, len(m.machines))
	for id := range m.machines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		r := m.machines[id]
		rows = append(rows, table.Row{
			id,
			string(r.last.Status),
			fmt.Sprintf("%.2f", r.last.Temperature),
			fmt.Sprintf("%.2f", r.last.EnergyKWh),
			fmt.Sprintf("%.2f", r.last.Vibration),
			strconv.Itoa(r.last.Throughput),
			r.last.ErrorCodeString(),
			strconv.Itoa(r.records),
			strconv.Itoa(r.faults),
		})
	}
	m.table.SetRows(rows)
}

func (m *tuiModel) updateViewportHeight() {
	used := lipgloss.Height(m.renderHeader()) + lipgloss.Height(m.renderBottom()) + 2
	h := m.height - used
	if h < 1 {
		h = 1
	}
	m.vp.Height = h
}

func (m *tuiModel) refreshViewport() {
	lines := m.logs
	if m.wrap && m.vp.Width > 0 {
		lines = make([]string, 0, len(m.logs))
		for _, l := range m.logs {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	return strings.Join([]string{
		m.renderHeader(),
		divider,
		m.vp.View(),
		divider,
		m.renderBottom(),
	}, "\n")
}

func (m tuiModel) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Render("factory-sim")
	if m.cfg != nil {
		title += lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
			fmt.Sprintf("  %d machines  every %dm  horizon %dm  profile %s",
				m.cfg.AgentCount, m.cfg.IntervalMinutes, m.cfg.Horizon, m.cfg.Profile))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, m.table.View())
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	admin := "Admin " + indicator(m.admin != "")
	if m.admin != "" {
		admin += " " + m.admin
	}
	return fmt.Sprintf("records=%d | %s | Wrap %s | Scroll %s | ? help",
		m.total, admin, indicator(m.wrap), indicator(m.autoscroll))
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" w  toggle wrap for record log",
		" s  toggle auto-scroll",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
