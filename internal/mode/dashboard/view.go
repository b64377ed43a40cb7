package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/shroombox/boxtop/internal/api"
	"github.com/shroombox/boxtop/internal/control"
	"github.com/shroombox/boxtop/internal/stream"
	"github.com/shroombox/boxtop/internal/ui/panes"
	"github.com/shroombox/boxtop/internal/ui/styles"
)

// Fixed panel heights. The log pane takes whatever is left.
const (
	headerHeight = 3
	midHeight    = 9
	minLogHeight = 4
)

var (
	labelStyle   = lipgloss.NewStyle().Foreground(styles.TextSecondaryColor)
	valueStyle   = lipgloss.NewStyle().Foreground(styles.TextPrimaryColor)
	runningStyle = lipgloss.NewStyle().Foreground(styles.StatusSuccessColor).Bold(true)
	stoppedStyle = lipgloss.NewStyle().Foreground(styles.StatusErrorColor).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
)

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	_, logsH := m.layout()

	sections := []string{
		m.renderHeader(),
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.renderMeasurements(),
			m.renderPhasePanel(),
			m.renderSettingsPanel(),
		),
		m.renderLogPanel(logsH),
	}
	if m.services.Config.UI.ShowStatusBar {
		sections = append(sections, m.renderStatusBar())
	}

	view := lipgloss.JoinVertical(lipgloss.Left, sections...)
	view = lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, view)

	if m.showHelp {
		return zone.Scan(m.helpModal.Overlay(view))
	}
	if m.form != nil {
		return zone.Scan(m.form.Overlay(view))
	}
	return zone.Scan(view)
}

// layout returns the width of each mid panel and the log pane height.
func (m Model) layout() (midPanelWidth, logsHeight int) {
	midPanelWidth = m.width / 3

	logsHeight = m.height - headerHeight - midHeight
	if m.services.Config.UI.ShowStatusBar {
		logsHeight--
	}
	logsHeight = max(logsHeight, minLogHeight)
	return midPanelWidth, logsHeight
}

// layoutLogView sizes the log viewport to the log pane interior.
func (m *Model) layoutLogView() {
	_, logsH := m.layout()
	m.logView.Width = max(m.width-2, 1)
	m.logView.Height = max(logsH-2, 1)
	m.refreshLogView()
}

// renderHeader renders the top status strip.
func (m Model) renderHeader() string {
	running := m.runningEffective()
	pending := m.snap.Controls[control.ControlSystem].Pending != nil

	var state string
	if running {
		state = runningStyle.Render("RUNNING")
	} else {
		state = stoppedStyle.Render("STOPPED")
	}
	if pending {
		state += styles.PendingStyle.Render(" …")
	} else if running && m.snap.Status.PID != nil {
		state += dimStyle.Render(fmt.Sprintf(" pid %d", *m.snap.Status.PID))
	}

	phase := valueStyle.Render(m.effectivePhase())
	if m.snap.Controls[control.ControlPhase].Pending != nil {
		phase += styles.PendingStyle.Render(" …")
	}

	parts := []string{
		labelStyle.Render("controller ") + state,
		labelStyle.Render("phase ") + phase,
		labelStyle.Render("device ") + dimStyle.Render(m.services.Client.BaseURL()),
	}

	return panes.BorderedPane(panes.BorderConfig{
		Content: strings.Join(parts, labelStyle.Render("   ")),
		Width:   m.width,
		Height:  headerHeight,
		Title:   "boxtop",
		Badge:   m.streamBadge(),
	})
}

// streamBadge formats the log stream connection state for the header.
func (m Model) streamBadge() string {
	if m.paused {
		return dimStyle.Render("◌ paused")
	}
	switch m.streamState {
	case stream.StateOpen:
		return lipgloss.NewStyle().Foreground(styles.StreamLiveColor).Render("● live")
	case stream.StateConnecting:
		return lipgloss.NewStyle().Foreground(styles.StreamReconnectingColor).Render("◌ connecting")
	case stream.StateErrored:
		return lipgloss.NewStyle().Foreground(styles.StreamReconnectingColor).Render("↻ reconnecting")
	default:
		return lipgloss.NewStyle().Foreground(styles.StreamClosedColor).Render("○ closed")
	}
}

// renderMeasurements renders the latest sensor readings.
func (m Model) renderMeasurements() string {
	midW, _ := m.layout()
	meas := m.snap.Measurements

	rows := []string{
		measRow("Temp", fmt.Sprintf("%.1f °C", meas.Temperature)),
		measRow("Humidity", fmt.Sprintf("%.1f %%RH", meas.Humidity)),
		measRow("CO₂", fmt.Sprintf("%.0f ppm", meas.CO2)),
		measRow("Fan", fmt.Sprintf("%.0f %%", meas.FanSpeed)),
	}

	return panes.BorderedPane(panes.BorderConfig{
		Content: strings.Join(rows, "\n"),
		Width:   midW,
		Height:  midHeight,
		Title:   "Measurements",
	})
}

func measRow(label, value string) string {
	return labelStyle.Width(10).Render(label) + valueStyle.Render(value)
}

// renderPhasePanel renders the phase selector.
func (m Model) renderPhasePanel() string {
	midW, _ := m.layout()
	effective := m.effectivePhase()
	pendingPhase := m.snap.Controls[control.ControlPhase].Pending

	var rows []string
	for i, phase := range api.Phases {
		cursor := "  "
		if m.focus == PanelPhase && i == m.phaseCursor {
			cursor = styles.SelectionIndicatorStyle.Render("> ")
		}

		name := valueStyle.Render(phase)
		marker := ""
		switch {
		case pendingPhase != nil && *pendingPhase == phase:
			name = styles.PendingStyle.Render(phase)
			marker = styles.PendingStyle.Render(" …applying")
		case phase == effective:
			marker = lipgloss.NewStyle().Foreground(styles.StatusSuccessColor).Render(" ●")
		}

		rows = append(rows, zone.Mark(makePhaseZoneID(i), cursor+name+marker))
	}

	setpoints := m.snap.Settings.Environment.Phases[effective]
	rows = append(rows, "",
		dimStyle.Render(fmt.Sprintf("  %.1f °C  %.0f %%RH  %d ppm",
			setpoints.TempSetpoint, setpoints.RHSetpoint, setpoints.CO2Setpoint)))

	return zone.Mark(zonePanelPhase, panes.BorderedPane(panes.BorderConfig{
		Content: strings.Join(rows, "\n"),
		Width:   midW,
		Height:  midHeight,
		Title:   "Phase",
		Focused: m.focus == PanelPhase,
	}))
}

// renderSettingsPanel renders humidifier and PID tunings.
func (m Model) renderSettingsPanel() string {
	midW, _ := m.layout()
	width := m.width - 2*midW

	s := m.snap.Settings
	rows := []string{
		m.settingRow("Burst min", "humidifier.burst_min_s", fmt.Sprintf("%.1f s", s.Humidifier.BurstMinS)),
		m.settingRow("Burst max", "humidifier.burst_max_s", fmt.Sprintf("%.1f s", s.Humidifier.BurstMaxS)),
		m.settingRow("Kp", "pid.kp", trimFloat(s.PID.Kp)),
		m.settingRow("Ki", "pid.ki", trimFloat(s.PID.Ki)),
		m.settingRow("Kd", "pid.kd", trimFloat(s.PID.Kd)),
		"",
		dimStyle.Render("H edit bursts  P edit gains"),
	}

	return zone.Mark(zonePanelSettings, panes.BorderedPane(panes.BorderConfig{
		Content: strings.Join(rows, "\n"),
		Width:   width,
		Height:  midHeight,
		Title:   "Settings",
		Focused: m.focus == PanelSettings,
	}))
}

// settingRow shows a tuning value, or its in-flight replacement.
func (m Model) settingRow(label, controlName, confirmed string) string {
	if p := m.snap.Controls[controlName].Pending; p != nil {
		return labelStyle.Width(11).Render(label) + styles.PendingStyle.Render(*p+" …")
	}
	return labelStyle.Width(11).Render(label) + valueStyle.Render(confirmed)
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}

// renderLogPanel renders the live device log pane.
func (m Model) renderLogPanel(height int) string {
	content := m.logView.View()
	if len(m.snap.Logs) == 0 {
		content = dimStyle.Italic(true).Render("Waiting for log lines...")
	}

	title := fmt.Sprintf("Device log (%d/%d)", len(m.snap.Logs), m.services.Config.Stream.BufferSize)

	return zone.Mark(zonePanelLogs, panes.BorderedPane(panes.BorderConfig{
		Content: content,
		Width:   m.width,
		Height:  height,
		Title:   title,
		Focused: m.focus == PanelLogs,
	}))
}

// renderStatusBar renders the bottom hint bar, or the current error.
func (m Model) renderStatusBar() string {
	if m.err != nil {
		msg := fmt.Sprintf("Error %s: %v", m.errContext, m.err)
		return styles.StatusBarStyle.Foreground(styles.StatusErrorColor).Render(msg)
	}

	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor)
	hints := []string{
		keyStyle.Render("tab") + dimStyle.Render(" panels"),
		keyStyle.Render("enter") + dimStyle.Render(" apply"),
		keyStyle.Render("s") + dimStyle.Render(" start/stop"),
		keyStyle.Render("r") + dimStyle.Render(" refresh"),
		keyStyle.Render("?") + dimStyle.Render(" help"),
		keyStyle.Render("q") + dimStyle.Render(" quit"),
	}
	return styles.StatusBarStyle.Render(strings.Join(hints, "  "))
}
