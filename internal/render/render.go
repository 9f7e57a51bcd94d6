package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/muurk/easyip/internal/discovery"
	"github.com/muurk/easyip/internal/protocol"
)

// Format is an output format for discovered devices.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatText  Format = "text"
)

// ConflictMarker is appended to table rows whose IP is claimed twice.
const ConflictMarker = "⚠ IP CONFLICT"

var (
	warningColor = lipgloss.Color("#FFA500")
	headerColor  = lipgloss.Color("#7D56F4")
	mutedColor   = lipgloss.Color("#626262")
)

// CSVHeaders are the column names written by CSV.
var CSVHeaders = []string{
	"Device Type",
	"Device Name",
	"Model",
	"Serial Number",
	"MAC Address",
	"IP Address",
	"Subnet Mask",
	"Gateway",
	"HTTP Port",
	"Network Mode",
	"Firmware",
}

var tableHeaders = []string{"Type", "MAC Address", "IP Address", "Port", "Device Name", "Model", "Serial Number"}

// Devices writes devices in the given format.
func Devices(w io.Writer, format Format, devices []protocol.DeviceRecord) error {
	switch format {
	case FormatCSV:
		return CSV(w, devices)
	case FormatJSON:
		return JSON(w, devices)
	case FormatTable:
		return Table(w, devices, true)
	default:
		return Text(w, devices)
	}
}

// Counts returns the number of cameras and recorders.
func Counts(devices []protocol.DeviceRecord) (cameras, recorders int) {
	for _, d := range devices {
		if d.DeviceType == protocol.DeviceRecorder {
			recorders++
		} else {
			cameras++
		}
	}
	return cameras, recorders
}

// Table writes a bordered table followed by a summary. With showWarnings,
// rows sharing an IP are marked and a conflict block is appended.
func Table(w io.Writer, devices []protocol.DeviceRecord, showWarnings bool) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(w, "No devices discovered.")
		return err
	}

	re := lipgloss.NewRenderer(w)
	conflicts := discovery.DetectConflicts(devices)
	marked := showWarnings && len(conflicts) > 0

	headers := tableHeaders
	if marked {
		headers = append(append([]string(nil), tableHeaders...), "")
	}

	rows := make([][]string, 0, len(devices))
	conflictRow := make(map[int]bool)
	for i, d := range devices {
		row := []string{
			d.DeviceType.Label(),
			d.MACAddress,
			d.IPAddress,
			strconv.Itoa(int(d.HTTPPort)),
			d.DeviceName,
			d.ModelName,
			d.SerialNumber,
		}
		if marked {
			mark := ""
			if _, ok := conflicts[d.IPAddress]; ok {
				mark = ConflictMarker
				conflictRow[i] = true
			}
			row = append(row, mark)
		}
		rows = append(rows, row)
	}

	headerStyle := re.NewStyle().Foreground(headerColor).Bold(true).Padding(0, 1)
	cellStyle := re.NewStyle().Padding(0, 1)
	conflictStyle := cellStyle.Foreground(warningColor)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(re.NewStyle().Foreground(mutedColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if conflictRow[row] {
				return conflictStyle
			}
			return cellStyle
		})

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	cameras, recorders := Counts(devices)
	fmt.Fprintf(&b, "Total devices discovered: %d\n", len(devices))
	if cameras > 0 {
		fmt.Fprintf(&b, "  Cameras: %d\n", cameras)
	}
	if recorders > 0 {
		fmt.Fprintf(&b, "  Recorders: %d\n", recorders)
	}

	if marked {
		warn := re.NewStyle().Foreground(warningColor).Bold(true)
		b.WriteString("\n")
		b.WriteString(warn.Render("⚠ WARNING: IP ADDRESS CONFLICTS DETECTED!"))
		b.WriteString("\n")
		b.WriteString(strings.Repeat("=", 60))
		b.WriteString("\n")
		for _, ip := range discovery.ConflictIPs(conflicts) {
			ids := conflicts[ip]
			fmt.Fprintf(&b, "  IP %s is assigned to %d devices:\n", ip, len(ids))
			for _, id := range ids {
				fmt.Fprintf(&b, "    - %s\n", id)
			}
		}
		b.WriteString("\nPlease reconfigure devices to use unique IP addresses.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// CSVRow returns the CSV cells for one device.
func CSVRow(d protocol.DeviceRecord) []string {
	return []string{
		d.DeviceType.String(),
		d.DeviceName,
		d.ModelName,
		d.SerialNumber,
		d.MACAddress,
		d.IPAddress,
		d.SubnetMask,
		d.Gateway,
		strconv.Itoa(int(d.HTTPPort)),
		d.NetworkMode.String(),
		d.FirmwareVersion,
	}
}

// CSV writes a header row and one row per device.
func CSV(w io.Writer, devices []protocol.DeviceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeaders); err != nil {
		return err
	}
	for _, d := range devices {
		if err := cw.Write(CSVRow(d)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Document is the JSON output shape. The tracker reads it back.
type Document struct {
	Count     int                     `json:"count"`
	Cameras   int                     `json:"cameras"`
	Recorders int                     `json:"recorders"`
	Devices   []protocol.DeviceRecord `json:"devices"`
}

// NewDocument wraps devices with their counts.
func NewDocument(devices []protocol.DeviceRecord) Document {
	cameras, recorders := Counts(devices)
	if devices == nil {
		devices = []protocol.DeviceRecord{}
	}
	return Document{
		Count:     len(devices),
		Cameras:   cameras,
		Recorders: recorders,
		Devices:   devices,
	}
}

// JSON writes an indented Document.
func JSON(w io.Writer, devices []protocol.DeviceRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(devices))
}

// ParseDiscoveryJSON reads a Document written by JSON. A bare array of
// devices is accepted too.
func ParseDiscoveryJSON(r io.Reader) ([]protocol.DeviceRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read discovery output: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var devices []protocol.DeviceRecord
		if err := json.Unmarshal(data, &devices); err != nil {
			return nil, fmt.Errorf("invalid device list: %w", err)
		}
		return devices, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid discovery JSON: %w", err)
	}
	return doc.Devices, nil
}

// Text writes a summary and a numbered block per device.
func Text(w io.Writer, devices []protocol.DeviceRecord) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(w, "No devices discovered.")
		return err
	}

	var b strings.Builder
	cameras, recorders := Counts(devices)
	fmt.Fprintf(&b, "Discovered %d device(s):\n", len(devices))
	if cameras > 0 {
		fmt.Fprintf(&b, "  Cameras: %d\n", cameras)
	}
	if recorders > 0 {
		fmt.Fprintf(&b, "  Recorders: %d\n", recorders)
	}
	b.WriteString("\n")
	for i, d := range devices {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, d)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
