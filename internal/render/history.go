package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/muurk/easyip/internal/tracker"
)

const timeLayout = "2006-01-02 15:04"

var historyHeaders = []string{"MAC Address", "IP Address", "Device Name", "Model", "Status", "Last Seen", "Seen"}

// History writes tracked devices as a table with their status at now.
func History(w io.Writer, devices []tracker.History, now time.Time, missingAfter time.Duration) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(w, "No devices tracked yet. Run 'easyip tracker update' after a discovery.")
		return err
	}

	re := lipgloss.NewRenderer(w)
	rows := make([][]string, 0, len(devices))
	statuses := make([]string, 0, len(devices))
	for _, h := range devices {
		status := tracker.Status(h, now, missingAfter)
		statuses = append(statuses, status)
		rows = append(rows, []string{
			h.MACAddress,
			h.CurrentIP,
			h.DeviceName,
			h.ModelName,
			status,
			h.LastSeen.Local().Format(timeLayout),
			fmt.Sprintf("%d", h.TotalDiscoveries),
		})
	}

	headerStyle := re.NewStyle().Foreground(headerColor).Bold(true).Padding(0, 1)
	cellStyle := re.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(re.NewStyle().Foreground(mutedColor)).
		Headers(historyHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			switch statuses[row] {
			case tracker.StatusMissing, tracker.StatusIPChanged:
				return cellStyle.Foreground(warningColor)
			case tracker.StatusOffline:
				return cellStyle.Foreground(mutedColor)
			}
			return cellStyle
		})

	_, err := fmt.Fprintf(w, "%s\n\nTracked devices: %d\n", t.Render(), len(devices))
	return err
}

// DeviceHistory writes one device's details and its address history.
func DeviceHistory(w io.Writer, h tracker.History, now time.Time, missingAfter time.Duration) error {
	var b strings.Builder
	field := func(k, v string) {
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(&b, "  %-16s %s\n", k+":", v)
	}

	fmt.Fprintf(&b, "%s %s\n\n", h.DeviceType.Label(), h.MACAddress)
	field("Status", tracker.Status(h, now, missingAfter))
	field("Device Name", h.DeviceName)
	field("Model", h.ModelName)
	field("Serial Number", h.SerialNumber)
	field("Firmware", h.FirmwareVersion)
	field("IP Address", h.CurrentIP)
	field("Subnet Mask", h.CurrentSubnet)
	field("Gateway", h.CurrentGateway)
	field("HTTP Port", fmt.Sprintf("%d", h.CurrentPort))
	field("Network Mode", h.CurrentNetworkMode)
	field("First Seen", h.FirstSeen.Local().Format(timeLayout))
	field("Last Seen", h.LastSeen.Local().Format(timeLayout))
	field("Discoveries", fmt.Sprintf("%d", h.TotalDiscoveries))

	b.WriteString("\nIP history:\n")
	for _, c := range h.IPHistory {
		if c.PreviousIP == "" {
			fmt.Fprintf(&b, "  %s  %s (first seen)\n", c.Timestamp.Local().Format(timeLayout), c.IP)
			continue
		}
		fmt.Fprintf(&b, "  %s  %s -> %s\n", c.Timestamp.Local().Format(timeLayout), c.PreviousIP, c.IP)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Stats writes tracker counts as aligned text.
func Stats(w io.Writer, st tracker.Stats) error {
	_, err := fmt.Fprintf(w, `Tracked devices: %d
  Cameras:    %d
  Recorders:  %d

  Active:     %d
  IP Changed: %d
  Offline:    %d
  Missing:    %d
`, st.Total, st.Cameras, st.Recorders, st.Active, st.IPChanged, st.Offline, st.Missing)
	return err
}
