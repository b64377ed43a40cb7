// Package panes contains the bordered panel renderer shared by the
// dashboard panels.
package panes

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/shroombox/boxtop/internal/ui/styles"
)

// Border characters (rounded)
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// BorderConfig configures a bordered panel.
type BorderConfig struct {
	Content string // Content rendered inside the border
	Width   int    // Total width including borders
	Height  int    // Total height including borders

	Title string // Embedded in the top border, left-aligned
	Badge string // Embedded in the top border, right-aligned

	Focused bool // Draws the border in the focus color
}

// BorderedPane renders content within a rounded border, with an optional
// title on the left of the top border and a badge on the right.
func BorderedPane(cfg BorderConfig) string {
	borderColor := styles.BorderDefaultColor
	if cfg.Focused {
		borderColor = styles.BorderHighlightFocusColor
	}
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(styles.OverlayTitleColor)

	innerWidth := max(cfg.Width-2, 1)
	contentHeight := max(cfg.Height-2, 1)

	topBorder := buildTopBorder(cfg.Title, cfg.Badge, innerWidth, borderStyle, titleStyle)
	bottomBorder := borderStyle.Render(
		borderBottomLeft + strings.Repeat(borderHorizontal, innerWidth) + borderBottomRight,
	)

	constrained := lipgloss.NewStyle().
		Width(innerWidth).
		Height(contentHeight).
		MaxWidth(innerWidth).
		Render(cfg.Content)

	contentLines := strings.Split(constrained, "\n")
	paddedLines := make([]string, contentHeight)
	for i := range contentHeight {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		if w := lipgloss.Width(line); w < innerWidth {
			line += strings.Repeat(" ", innerWidth-w)
		}
		paddedLines[i] = borderStyle.Render(borderVertical) + line + borderStyle.Render(borderVertical)
	}

	var b strings.Builder
	b.WriteString(topBorder)
	b.WriteString("\n")
	b.WriteString(strings.Join(paddedLines, "\n"))
	b.WriteString("\n")
	b.WriteString(bottomBorder)
	return b.String()
}

// buildTopBorder embeds the title on the left and the badge on the right:
// ╭─ Title ──────── Badge ─╮
func buildTopBorder(title, badge string, innerWidth int, borderStyle, titleStyle lipgloss.Style) string {
	if innerWidth < 1 {
		return borderStyle.Render(borderTopLeft + borderTopRight)
	}
	if title == "" && badge == "" {
		return borderStyle.Render(borderTopLeft + strings.Repeat(borderHorizontal, innerWidth) + borderTopRight)
	}

	titleWidth := lipgloss.Width(title)
	badgeWidth := lipgloss.Width(badge)

	// "─ Title ─…─ Badge ─" needs the two side gaps plus at least one
	// middle dash. Drop the badge first when space runs out, then the title.
	if title != "" && badge != "" && innerWidth < titleWidth+badgeWidth+6 {
		badge = ""
		badgeWidth = 0
	}
	if title != "" && badge == "" && innerWidth < titleWidth+4 {
		title = ansi.Truncate(title, max(innerWidth-4, 0), "…")
		titleWidth = lipgloss.Width(title)
		if titleWidth == 0 {
			return borderStyle.Render(borderTopLeft + strings.Repeat(borderHorizontal, innerWidth) + borderTopRight)
		}
	}

	var middle int
	switch {
	case title != "" && badge != "":
		middle = innerWidth - titleWidth - badgeWidth - 6
	case title != "":
		middle = innerWidth - titleWidth - 3
	default:
		middle = innerWidth - badgeWidth - 3
	}
	middle = max(middle, 1)

	var b strings.Builder
	b.WriteString(borderStyle.Render(borderTopLeft))
	if title != "" {
		b.WriteString(borderStyle.Render(borderHorizontal + " "))
		b.WriteString(titleStyle.Render(title))
		b.WriteString(borderStyle.Render(" "))
	}
	b.WriteString(borderStyle.Render(strings.Repeat(borderHorizontal, middle)))
	if badge != "" {
		b.WriteString(borderStyle.Render(" "))
		b.WriteString(badge)
		b.WriteString(borderStyle.Render(" " + borderHorizontal))
	}
	b.WriteString(borderStyle.Render(borderTopRight))
	return b.String()
}
