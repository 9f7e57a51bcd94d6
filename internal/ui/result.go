package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType selects the banner and border color of a Result.
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Result is the box printed when a command finishes.
type Result struct {
	Type            ResultType
	Title           string
	Details         []Param
	Error           error    // Failure results
	Troubleshooting []string // Failure results
	Width           int
}

func NewSuccessResult(title string, details ...Param) *Result {
	return &Result{Type: ResultSuccess, Title: title, Details: details, Width: GetTerminalWidth()}
}

// NewFailureResult shows err and, when given, a nested box of tips.
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	return &Result{
		Type:            ResultFailure,
		Title:           title,
		Error:           err,
		Troubleshooting: troubleshooting,
		Width:           GetTerminalWidth(),
	}
}

func NewWarningResult(title string, details ...Param) *Result {
	return &Result{Type: ResultWarning, Title: title, Details: details, Width: GetTerminalWidth()}
}

func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a labelled line.
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Param{Key: key, Value: value})
	return r
}

func (r *Result) Render() string {
	width := clampWidth(r.Width)

	lines := []string{"", banner(r.Type, r.Title), ""}
	if len(r.Details) > 0 {
		lines = append(lines, renderParams(r.Details, "   "), "")
	}

	if r.Type == ResultFailure {
		if r.Error != nil {
			msg := lipgloss.NewStyle().Foreground(FailColor).Render("   Error: " + r.Error.Error())
			lines = append(lines, msg, "")
		}
		if len(r.Troubleshooting) > 0 {
			lines = append(lines, tipsBox(r.Troubleshooting, width), "")
		}
	}

	return box(resultLook[r.Type].color, width, strings.Join(lines, "\n"))
}

func tipsBox(tips []string, width int) string {
	lines := []string{dimStyle.Bold(true).Render("Troubleshooting:"), ""}
	for _, tip := range tips {
		lines = append(lines, dimStyle.Render("  • "+tip))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DimColor).
		Width(max(width-12, 40)).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}

func (r *Result) String() string {
	return r.Render()
}
