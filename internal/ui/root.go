package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/google/overtop/internal/metrics"
)

// SnapshotSource supplies the most recent sensor snapshot. It must be
// safe to call from the Bubble Tea event loop while polling continues
// in the background.
type SnapshotSource interface {
	Latest() metrics.Snapshot
}

type TickMsg time.Time

func tick(period time.Duration) tea.Cmd {
	return tea.Tick(period, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

type RootModel struct {
	source SnapshotSource
	period time.Duration

	cpu CPUPanel
	gpu GPUPanel
	net NetPanel

	width, height int
}

func NewRootModel(source SnapshotSource, period time.Duration) RootModel {
	if period <= 0 {
		period = time.Second
	}
	return RootModel{
		source: source,
		period: period,
		cpu:    NewCPUPanel(),
		gpu:    NewGPUPanel(),
		net:    NewNetPanel(),
	}
}

func (m RootModel) Init() tea.Cmd {
	return tick(m.period)
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePanels()

	case TickMsg:
		snap := m.source.Latest()
		m.cpu.SetSnapshot(snap)
		m.gpu.SetSnapshot(snap)
		m.net.SetSnapshot(snap)
		return m, tick(m.period)
	}

	return m, nil
}

func (m *RootModel) resizePanels() {
	w := m.width
	if w < 24 {
		w = 24
	}
	m.cpu.SetWidth(w)
	m.gpu.SetWidth(w)
	m.net.SetWidth(w)
}

func (m RootModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.cpu.View(),
		m.gpu.View(),
		m.net.View(),
		LabelStyle.Render(" q: quit"),
	)
}

// newUsageBar builds a gradient progress bar shared by the CPU and GPU
// panels.
func newUsageBar() progress.Model {
	return progress.New(
		progress.WithGradient(ColorSkyBlue, ColorCrimson),
		progress.WithoutPercentage(),
	)
}
