package panes

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
)

func TestBorderedPane_BasicRendering(t *testing.T) {
	cfg := BorderConfig{
		Content: "Hello World",
		Width:   20,
		Height:  5,
	}

	result := BorderedPane(cfg)

	// Should contain border characters (rounded)
	require.Contains(t, result, "╭", "missing top-left corner")
	require.Contains(t, result, "╮", "missing top-right corner")
	require.Contains(t, result, "╰", "missing bottom-left corner")
	require.Contains(t, result, "╯", "missing bottom-right corner")
	require.Contains(t, result, "│", "missing vertical border")

	// Should contain content
	require.Contains(t, result, "Hello World", "missing content")

	// Should have correct line count
	lines := strings.Split(result, "\n")
	require.Len(t, lines, 5, "expected 5 lines for height 5")
}

func TestBorderedPane_Title(t *testing.T) {
	cfg := BorderConfig{
		Content: "content",
		Width:   30,
		Height:  5,
		Title:   "Measurements",
	}

	result := BorderedPane(cfg)

	require.Contains(t, result, "Measurements", "missing title")
	require.Contains(t, result, "╭", "missing top-left corner")
}

func TestBorderedPane_Badge(t *testing.T) {
	cfg := BorderConfig{
		Content: "content",
		Width:   30,
		Height:  5,
		Badge:   "● live",
	}

	result := BorderedPane(cfg)

	require.Contains(t, result, "● live", "missing badge")
}

func TestBorderedPane_TitleAndBadge(t *testing.T) {
	cfg := BorderConfig{
		Content: "content",
		Width:   40,
		Height:  5,
		Title:   "Device log",
		Badge:   "↻ reconnecting",
	}

	result := BorderedPane(cfg)

	require.Contains(t, result, "Device log", "missing title")
	require.Contains(t, result, "↻ reconnecting", "missing badge")

	// Title sits left of the badge in the top border
	topLine := strings.Split(result, "\n")[0]
	require.Less(t, strings.Index(topLine, "Device log"), strings.Index(topLine, "↻"),
		"title should precede badge")
}

func TestBorderedPane_FocusedState(t *testing.T) {
	base := BorderConfig{
		Content: "content",
		Width:   20,
		Height:  5,
		Title:   "Test",
	}
	focused := base
	focused.Focused = true

	unfocusedResult := BorderedPane(base)
	focusedResult := BorderedPane(focused)

	// Both should have valid structure
	require.Contains(t, unfocusedResult, "╭", "unfocused missing border")
	require.Contains(t, focusedResult, "╭", "focused missing border")
	require.Contains(t, unfocusedResult, "Test", "unfocused missing title")
	require.Contains(t, focusedResult, "Test", "focused missing title")

	// Results should have same line count but may differ in ANSI color codes
	unfocusedLines := strings.Split(unfocusedResult, "\n")
	focusedLines := strings.Split(focusedResult, "\n")
	require.Equal(t, len(unfocusedLines), len(focusedLines), "focused and unfocused should have same line count")
}

func TestBorderedPane_EmptyContent(t *testing.T) {
	cfg := BorderConfig{
		Content: "",
		Width:   20,
		Height:  5,
		Title:   "Empty",
	}

	result := BorderedPane(cfg)

	// Should still render valid border
	require.Contains(t, result, "╭", "missing top-left corner")
	require.Contains(t, result, "╯", "missing bottom-right corner")
	require.Contains(t, result, "Empty", "missing title")

	lines := strings.Split(result, "\n")
	require.Len(t, lines, 5, "expected 5 lines for height 5")
}

func TestBorderedPane_NarrowWidth(t *testing.T) {
	cfg := BorderConfig{
		Content: "x",
		Width:   5,
		Height:  3,
	}

	result := BorderedPane(cfg)

	// Should render without panic
	require.Contains(t, result, "╭", "missing top-left corner")
	require.Contains(t, result, "╯", "missing bottom-right corner")

	lines := strings.Split(result, "\n")
	require.Len(t, lines, 3, "expected 3 lines for height 3")
}

func TestBorderedPane_MinimumWidth(t *testing.T) {
	cfg := BorderConfig{
		Content: "x",
		Width:   3, // Minimum: just corners
		Height:  3,
	}

	result := BorderedPane(cfg)

	require.NotEmpty(t, result, "result should not be empty")
}

func TestBorderedPane_ContentTruncation(t *testing.T) {
	// Content wider than inner width should be truncated
	cfg := BorderConfig{
		Content: "This is a very long line that should be truncated to fit within the border",
		Width:   20,
		Height:  3,
	}

	result := BorderedPane(cfg)

	// Each line should fit within the width
	lines := strings.Split(result, "\n")
	for _, line := range lines {
		lineWidth := lipgloss.Width(line)
		require.LessOrEqual(t, lineWidth, 20, "line width exceeds border width")
	}
}

func TestBorderedPane_MultilineContent(t *testing.T) {
	cfg := BorderConfig{
		Content: "Line 1\nLine 2\nLine 3",
		Width:   20,
		Height:  5,
	}

	result := BorderedPane(cfg)

	require.Contains(t, result, "Line 1", "missing line 1")
	require.Contains(t, result, "Line 2", "missing line 2")
	require.Contains(t, result, "Line 3", "missing line 3")
}

func TestBorderedPane_UnicodeContent(t *testing.T) {
	cfg := BorderConfig{
		Content: "Humidity 88 %RH",
		Width:   20,
		Height:  3,
	}

	result := BorderedPane(cfg)

	require.Contains(t, result, "Humidity", "missing content")

	lines := strings.Split(result, "\n")
	for _, line := range lines {
		require.LessOrEqual(t, lipgloss.Width(line), 20, "line width exceeds border width")
	}
}

func TestBuildTopBorder_EmptyTitleAndBadge(t *testing.T) {
	borderStyle := lipgloss.NewStyle()
	titleStyle := lipgloss.NewStyle()

	result := buildTopBorder("", "", 10, borderStyle, titleStyle)

	require.Contains(t, result, "╭", "missing top-left corner")
	require.Contains(t, result, "╮", "missing top-right corner")
	require.Contains(t, result, "─", "missing horizontal border")
}

func TestBuildTopBorder_WithTitle(t *testing.T) {
	borderStyle := lipgloss.NewStyle()
	titleStyle := lipgloss.NewStyle()

	result := buildTopBorder("Test", "", 15, borderStyle, titleStyle)

	require.Contains(t, result, "╭", "missing top-left corner")
	require.Contains(t, result, "╮", "missing top-right corner")
	require.Contains(t, result, "Test", "missing title")
}

func TestBuildTopBorder_DropsBadgeWhenNarrow(t *testing.T) {
	borderStyle := lipgloss.NewStyle()
	titleStyle := lipgloss.NewStyle()

	// Not enough room for both; badge goes first
	result := buildTopBorder("LongishTitle", "Badge", 18, borderStyle, titleStyle)

	require.Contains(t, result, "LongishTitle", "title should survive")
	require.NotContains(t, result, "Badge", "badge should be dropped when space runs out")
}

func TestBuildTopBorder_TruncatesLongTitle(t *testing.T) {
	borderStyle := lipgloss.NewStyle()
	titleStyle := lipgloss.NewStyle()

	result := buildTopBorder("Very Long Title That Should Be Truncated", "", 15, borderStyle, titleStyle)

	require.Contains(t, result, "╭", "missing top-left corner")
	require.Contains(t, result, "╮", "missing top-right corner")
	require.NotContains(t, result, "Truncated", "title should be truncated")
	require.Contains(t, result, "…", "truncation marker expected")
}

func TestBuildTopBorder_ZeroWidth(t *testing.T) {
	borderStyle := lipgloss.NewStyle()
	titleStyle := lipgloss.NewStyle()

	result := buildTopBorder("Title", "Badge", 0, borderStyle, titleStyle)

	require.Contains(t, result, "╭", "missing top-left corner")
	require.Contains(t, result, "╮", "missing top-right corner")
}
