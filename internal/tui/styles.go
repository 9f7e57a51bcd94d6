package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/easyip/internal/ui"
	"github.com/muurk/easyip/internal/urls"
	"github.com/muurk/easyip/internal/version"
)

const AppName = "EASY IP MONITOR"

// Styles share the one-shot command palette.
var (
	TitleStyle    = lipgloss.NewStyle().Foreground(ui.AccentColor).Bold(true)
	SubtitleStyle = lipgloss.NewStyle().Foreground(ui.DimColor).Italic(true)
	OnlineStyle   = lipgloss.NewStyle().Foreground(ui.OKColor).Bold(true)
	OfflineStyle  = lipgloss.NewStyle().Foreground(ui.FailColor)
	WarningStyle  = lipgloss.NewStyle().Foreground(ui.CautionColor).Bold(true)
	ErrorStyle    = OfflineStyle.Bold(true)
	SpinnerStyle  = lipgloss.NewStyle().Foreground(ui.AccentColor)

	// Details panel and group prompt
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.AccentColor).
			Padding(0, 2).
			MarginTop(1)
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.AccentColor).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(ui.BrightColor).
		Background(ui.AccentColor).
		Bold(false)
	return s
}

// BuildHeaderContent is the title bar: name, version and project link.
func BuildHeaderContent() string {
	name := lipgloss.NewStyle().Foreground(ui.BrightColor).Bold(true).Render(AppName + " v" + version.Version)
	link := lipgloss.NewStyle().Foreground(ui.DimColor).Render(strings.TrimPrefix(urls.Repository, "https://"))
	return name + " " + link
}

// ruled renders text across width with a single rule on the given side.
func ruled(text string, width int, border lipgloss.Border) string {
	return lipgloss.NewStyle().
		BorderStyle(border).
		BorderForeground(ui.AccentColor).
		Width(width).
		Padding(0, 1).
		Render(text)
}

// RenderApplicationContainer frames a screen with the title bar above and
// the help line below, filling the terminal.
func RenderApplicationContainer(content string, footerText string, terminalWidth int, terminalHeight int) string {
	footer := lipgloss.NewStyle().Foreground(ui.DimColor).Render(footerText)
	if terminalWidth <= 0 || terminalHeight <= 0 {
		// No WindowSizeMsg yet.
		return lipgloss.JoinVertical(lipgloss.Left, BuildHeaderContent(), content, footer)
	}

	inner := terminalWidth - 4
	body := lipgloss.JoinVertical(lipgloss.Left,
		ruled(BuildHeaderContent(), inner, lipgloss.Border{Bottom: "─"}),
		lipgloss.NewStyle().Width(inner).Render(content),
		ruled(footer, inner, lipgloss.Border{Top: "─"}),
	)

	frame := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(ui.AccentColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		Render(body)
	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, frame)
}
