package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette shared with the dashboard and the terminal monitor.
var (
	AccentColor  = lipgloss.Color("#7D56F4")
	OKColor      = lipgloss.Color("#43BF6D")
	FailColor    = lipgloss.Color("#FF5555")
	CautionColor = lipgloss.Color("#FFA500")
	DimColor     = lipgloss.Color("#626262")
	BrightColor  = lipgloss.Color("#FFFFFF")
)

// Box widths are clamped to this range.
const (
	MinWidth = 60
	MaxWidth = 100
)

// labelWidth aligns "Key:" columns in headers and result boxes.
const labelWidth = 18

var (
	titleStyle = lipgloss.NewStyle().Foreground(BrightColor).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(DimColor)
	valueStyle = lipgloss.NewStyle().Foreground(BrightColor)
	labelStyle = dimStyle.Width(labelWidth)
	noteStyle  = dimStyle.Italic(true)
)

// stepLook is how a step line renders in each status.
var stepLook = map[StepStatus]struct {
	marker string
	style  lipgloss.Style
}{
	StepPending:  {"·", dimStyle},
	StepRunning:  {"●", lipgloss.NewStyle().Foreground(CautionColor)},
	StepComplete: {"✓", lipgloss.NewStyle().Foreground(OKColor)},
	StepFailed:   {"✗", lipgloss.NewStyle().Foreground(FailColor).Bold(true)},
	StepSkipped:  {"⊘", dimStyle},
}

// resultLook is the banner of each result box.
var resultLook = map[ResultType]struct {
	label  string
	marker string
	color  lipgloss.Color
}{
	ResultSuccess: {"SUCCESS", "✓", OKColor},
	ResultFailure: {"FAILED", "✗", FailColor},
	ResultWarning: {"WARNING", "⚠", CautionColor},
}

// banner renders "   ✓  SUCCESS  ─  title" in the result's color.
func banner(t ResultType, title string) string {
	look := resultLook[t]
	return lipgloss.NewStyle().Foreground(look.color).Bold(true).
		Render("   " + look.marker + "  " + look.label + "  ─  " + title)
}

// box draws the double-bordered frame used by results and confirmations.
func box(color lipgloss.Color, width int, content string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 2).
		Render(content)
}

// GetTerminalWidth returns the stdout width clamped to [MinWidth, MaxWidth].
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinWidth
	}
	return min(clampWidth(width), MaxWidth)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func clampWidth(width int) int {
	return max(width, MinWidth)
}
