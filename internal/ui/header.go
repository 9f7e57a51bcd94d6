package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Param is one labelled value shown in a header or result box.
type Param struct {
	Key   string
	Value string
}

func renderParams(params []Param, indent string) string {
	lines := make([]string, 0, len(params))
	for _, p := range params {
		lines = append(lines, labelStyle.Render(indent+p.Key+":")+" "+valueStyle.Render(p.Value))
	}
	return strings.Join(lines, "\n")
}

// Header is the banner printed before a command runs: an upper-cased title,
// the command line, and the parameters it will act on.
type Header struct {
	Title   string
	Command string
	Params  []Param // Shown in order
	Width   int
}

// NewHeader creates a header sized to the terminal.
func NewHeader(title, command string, params ...Param) *Header {
	return &Header{Title: title, Command: command, Params: params, Width: GetTerminalWidth()}
}

func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

func (h *Header) Render() string {
	width := clampWidth(h.Width)
	pad := lipgloss.NewStyle().PaddingLeft(2)

	parts := []string{
		pad.Inherit(titleStyle).Render(strings.ToUpper(h.Title)),
		pad.Inherit(dimStyle).Render(h.Command),
	}
	if len(h.Params) > 0 {
		rule := lipgloss.NewStyle().Foreground(AccentColor).Render(strings.Repeat("─", max(width-6, 10)))
		parts = append(parts, rule, renderParams(h.Params, "  "))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(AccentColor).
		Width(width - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (h *Header) String() string {
	return h.Render()
}
