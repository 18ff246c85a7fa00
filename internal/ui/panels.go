package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/google/overtop/internal/metrics"
)

// Temperatures at or above this many degrees are highlighted.
const tempWarnC = 85

// smoothWindow is how many snapshots the panels average before
// rendering, so a single noisy poll doesn't jump the display.
const smoothWindow = 4

// CPUPanel shows processor temperature and load.
type CPUPanel struct {
	width int
	snap  metrics.Snapshot
	usage *movingAverage
	bar   progress.Model
}

func NewCPUPanel() CPUPanel {
	return CPUPanel{usage: newMovingAverage(smoothWindow), bar: newUsageBar()}
}

func (p *CPUPanel) SetWidth(w int) {
	p.width = w
	p.bar.Width = barWidth(w)
}

func (p *CPUPanel) SetSnapshot(s metrics.Snapshot) {
	p.snap = s
	if v, ok := s.CPUUsagePct.Value(); ok {
		p.usage.add(v)
	} else {
		p.usage.reset()
	}
}

func (p CPUPanel) View() string {
	title := TitleStyle.Foreground(lipgloss.Color(ColorSkyBlue)).Render("CPU")
	temp := renderTemp(p.snap.CPUTempC)
	load := renderUsage(p.usage, p.bar)
	return renderPanel(p.width, title, temp, load)
}

// GPUPanel shows graphics temperature and engine load.
type GPUPanel struct {
	width int
	snap  metrics.Snapshot
	usage *movingAverage
	bar   progress.Model
}

func NewGPUPanel() GPUPanel {
	return GPUPanel{usage: newMovingAverage(smoothWindow), bar: newUsageBar()}
}

func (p *GPUPanel) SetWidth(w int) {
	p.width = w
	p.bar.Width = barWidth(w)
}

func (p *GPUPanel) SetSnapshot(s metrics.Snapshot) {
	p.snap = s
	if v, ok := s.GPUUsagePct.Value(); ok {
		p.usage.add(v)
	} else {
		p.usage.reset()
	}
}

func (p GPUPanel) View() string {
	title := TitleStyle.Foreground(lipgloss.Color(ColorMintGreen)).Render("GPU")
	temp := renderTemp(p.snap.GPUTempC)
	load := renderUsage(p.usage, p.bar)
	return renderPanel(p.width, title, temp, load)
}

// NetPanel shows aggregate download and upload throughput.
type NetPanel struct {
	width int
	snap  metrics.Snapshot
	down  *movingAverage
	up    *movingAverage
}

func NewNetPanel() NetPanel {
	return NetPanel{
		down: newMovingAverage(smoothWindow),
		up:   newMovingAverage(smoothWindow),
	}
}

func (p *NetPanel) SetWidth(w int) {
	p.width = w
}

func (p *NetPanel) SetSnapshot(s metrics.Snapshot) {
	p.snap = s
	smoothInto(p.down, s.NetInBps)
	smoothInto(p.up, s.NetOutBps)
}

func (p NetPanel) View() string {
	title := TitleStyle.Render("NET")
	down := renderSpeed(p.down, DownStyle, "↓")
	up := renderSpeed(p.up, UpStyle, "↑")
	return renderPanel(p.width, title, down, up)
}

func smoothInto(avg *movingAverage, mv metrics.MetricValue) {
	if v, ok := mv.Value(); ok {
		avg.add(v)
	} else {
		avg.reset()
	}
}

func renderPanel(width int, title string, rows ...string) string {
	style := PanelStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{title}, rows...)...)
	return style.Render(content)
}

func renderTemp(mv metrics.MetricValue) string {
	v, ok := mv.Value()
	if !ok {
		return LabelStyle.Render("Temp ") + MissingStyle.Render("N/A")
	}
	style := ValueStyle
	if v >= tempWarnC {
		style = WarnStyle
	}
	return LabelStyle.Render("Temp ") + style.Render(formatTemp(v))
}

func renderUsage(avg *movingAverage, bar progress.Model) string {
	v, ok := avg.value()
	if !ok {
		return LabelStyle.Render("Load ") + MissingStyle.Render("N/A")
	}
	return fmt.Sprintf("%s%s %s",
		LabelStyle.Render("Load "),
		ValueStyle.Render(fmt.Sprintf("%4s", formatPct(v))),
		bar.ViewAs(v/100))
}

func renderSpeed(avg *movingAverage, style lipgloss.Style, arrow string) string {
	v, ok := avg.value()
	if !ok {
		return style.Render(arrow+" ") + MissingStyle.Render("N/A")
	}
	return style.Render(arrow+" ") + ValueStyle.Render(formatSpeed(v))
}

func barWidth(panelWidth int) int {
	w := panelWidth - 14
	if w < 10 {
		w = 10
	}
	return w
}
