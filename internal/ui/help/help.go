// Package help contains the help overlay component.
package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/shroombox/boxtop/internal/keys"
	"github.com/shroombox/boxtop/internal/ui/markdown"
	"github.com/shroombox/boxtop/internal/ui/overlay"
	"github.com/shroombox/boxtop/internal/ui/styles"
)

// phaseGuide is the short phase reference shown under the keybindings.
const phaseGuide = `**Phases**

- **colonisation** keeps the chamber warm and still while mycelium takes over the substrate.
- **growing** drops temperature and drives humidity for pinning and fruiting.
- **cake** holds gentle conditions to rest a cake between flushes.

Applying a phase is optimistic. The new value shows immediately and rolls back if the device rejects it.`

// guideWrapWidth is the word wrap width for the rendered phase guide.
const guideWrapWidth = 64

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.OverlayTitleColor).
			PaddingLeft(2)

	dividerStyle = lipgloss.NewStyle().
			Foreground(styles.OverlayBorderColor)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.OverlayTitleColor).
			MarginTop(1)

	keyStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondaryColor).
			Width(11)

	descStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimaryColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.OverlayBorderColor)

	contentStyle = lipgloss.NewStyle().
			Padding(0, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(styles.TextMutedColor).
			MarginTop(1)
)

// Model holds the help view state.
type Model struct {
	keys   keys.KeyMap
	width  int
	height int
	guide  string
}

// New creates a new help view.
func New() Model {
	return Model{
		keys:  keys.DefaultKeyMap(),
		guide: renderGuide(),
	}
}

func renderGuide() string {
	r, err := markdown.New(guideWrapWidth)
	if err != nil {
		return phaseGuide
	}
	out, err := r.Render(phaseGuide)
	if err != nil {
		return phaseGuide
	}
	return strings.TrimRight(out, "\n")
}

// SetSize updates dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// View renders the help overlay (standalone, no background).
func (m Model) View() string {
	return m.Overlay("")
}

// Overlay renders the help box on top of a background view.
func (m Model) Overlay(background string) string {
	helpBox := m.renderContent()

	if background == "" {
		return lipgloss.Place(
			m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			helpBox,
		)
	}

	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, helpBox, background)
}

// renderContent builds the help box content.
func (m Model) renderContent() string {
	columnStyle := lipgloss.NewStyle().MarginRight(4)

	// Controls column
	var controlsCol strings.Builder
	controlsCol.WriteString(sectionStyle.Render("Controls"))
	controlsCol.WriteString("\n")
	controlsCol.WriteString(m.renderBinding(m.keys.Phase))
	controlsCol.WriteString(m.renderBinding(m.keys.Enter))
	controlsCol.WriteString(m.renderBinding(m.keys.StartStop))
	controlsCol.WriteString(m.renderBinding(m.keys.EditHumid))
	controlsCol.WriteString(m.renderBinding(m.keys.EditPID))
	controlsCol.WriteString(m.renderBinding(m.keys.Refresh))

	// Log stream column
	var streamCol strings.Builder
	streamCol.WriteString(sectionStyle.Render("Log stream"))
	streamCol.WriteString("\n")
	streamCol.WriteString(renderKeyDesc("j/k", "scroll logs"))
	streamCol.WriteString(renderKeyDesc("g/G", "top/bottom"))
	streamCol.WriteString(m.renderBinding(m.keys.ClearLogs))
	streamCol.WriteString(m.renderBinding(m.keys.PauseStream))
	streamCol.WriteString(m.renderBinding(m.keys.Reconnect))

	// General column
	var generalCol strings.Builder
	generalCol.WriteString(sectionStyle.Render("General"))
	generalCol.WriteString("\n")
	generalCol.WriteString(m.renderBinding(m.keys.NextPanel))
	generalCol.WriteString(m.renderBinding(m.keys.Help))
	generalCol.WriteString(m.renderBinding(m.keys.LogOverlay))
	generalCol.WriteString(m.renderBinding(m.keys.Escape))
	generalCol.WriteString(m.renderBinding(m.keys.Quit))

	columns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(controlsCol.String()),
		columnStyle.Render(streamCol.String()),
		generalCol.String(),
	)

	boxWidth := max(lipgloss.Width(columns), lipgloss.Width(m.guide)) + 4

	body := contentStyle.Render(
		columns + "\n\n" + m.guide + "\n" + footerStyle.Render("Press ? or Esc to close"),
	)

	divider := dividerStyle.Render(strings.Repeat("─", boxWidth))

	var content strings.Builder
	content.WriteString(titleStyle.Render("Keybindings"))
	content.WriteString("\n")
	content.WriteString(divider)
	content.WriteString("\n")
	content.WriteString(body)

	return boxStyle.Width(boxWidth).Render(content.String())
}

func (m Model) renderBinding(b key.Binding) string {
	help := b.Help()
	return renderKeyDesc(help.Key, help.Desc)
}

func renderKeyDesc(key, desc string) string {
	return keyStyle.Render(key) + descStyle.Render(desc) + "\n"
}
