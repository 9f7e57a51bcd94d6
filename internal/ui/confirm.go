package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmPhrase is what the operator types to approve a change.
const ConfirmPhrase = "yes"

// Confirm shows a warning box and reads one line from in. It returns true
// only when the line is ConfirmPhrase (case-insensitive).
func Confirm(in io.Reader, out io.Writer, title string, warnings []string) bool {
	width := GetTerminalWidth()

	lines := []string{"", banner(ResultWarning, title), ""}
	for _, w := range warnings {
		lines = append(lines, valueStyle.Render("   • "+w))
	}
	lines = append(lines, "")

	fmt.Fprintln(out, box(CautionColor, width, strings.Join(lines, "\n")))
	fmt.Fprintln(out)
	prompt := lipgloss.NewStyle().Foreground(CautionColor).Bold(true)
	fmt.Fprint(out, prompt.Render(fmt.Sprintf("Type %q and press Enter to continue: ", ConfirmPhrase)))

	input, err := bufio.NewReader(in).ReadString('\n')
	fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(input), ConfirmPhrase) {
		return true
	}

	fmt.Fprintln(out, dimStyle.Render("  Operation cancelled."))
	return false
}

// ConfigureConfirmation warns before a device's network settings change.
func ConfigureConfirmation(in io.Reader, out io.Writer, mac, ip string) bool {
	return Confirm(in, out, "NETWORK CONFIGURATION CHANGE", []string{
		"Device " + mac + " will move to " + ip,
		"The device may restart and be unreachable for up to a minute",
		"A wrong subnet or gateway can make the device unreachable from this network",
		"The request is broadcast; every device on the segment receives it",
	})
}
