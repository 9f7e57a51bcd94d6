package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"

	"github.com/muurk/easyip/internal/config"
	"github.com/muurk/easyip/internal/protocol"
	"github.com/muurk/easyip/internal/tracker"
)

type rowKind int

const (
	rowGroup rowKind = iota
	rowDevice
)

// rowRef maps a table row back to what it shows.
type rowRef struct {
	kind  rowKind
	group string
	mac   string
}

// groupCounts returns how many of g's devices were seen in the last scan.
func groupCounts(g *config.Group, online map[string]bool) (up, total int) {
	for _, mac := range g.Devices {
		if online[mac] {
			up++
		}
	}
	return up, len(g.Devices)
}

func columns(cols *config.Columns) []table.Column {
	out := []table.Column{
		{Title: "", Width: 2},
		{Title: "Name", Width: 28},
		{Title: "IP Address", Width: 15},
		{Title: "MAC Address", Width: 17},
		{Title: "Model", Width: 14},
	}
	if cols != nil && cols.Serial {
		out = append(out, table.Column{Title: "Serial", Width: 12})
	}
	if cols != nil && cols.Firmware {
		out = append(out, table.Column{Title: "Firmware", Width: 10})
	}
	if cols != nil && cols.Port {
		out = append(out, table.Column{Title: "Port", Width: 5})
	}
	return append(out, table.Column{Title: "Status", Width: 8})
}

// buildRows lays out the site as group header rows, each followed by its
// devices when the group is expanded. Every row has one cell per column.
func buildRows(site *config.Site, known map[string]protocol.DeviceRecord, online map[string]bool) ([]table.Row, []rowRef) {
	width := len(columns(site.Columns))
	var (
		rows []table.Row
		refs []rowRef
	)

	for _, g := range site.Groups {
		up, total := groupCounts(g, online)
		marker := "▶"
		if g.Expanded {
			marker = "▼"
		}
		header := make(table.Row, width)
		header[0] = marker
		header[1] = fmt.Sprintf("%s (%d/%d online)", g.Name, up, total)
		rows = append(rows, header)
		refs = append(refs, rowRef{kind: rowGroup, group: g.Name})

		if !g.Expanded {
			continue
		}
		for _, mac := range g.Devices {
			rows = append(rows, deviceRow(site, mac, known[mac], online[mac]))
			refs = append(refs, rowRef{kind: rowDevice, group: g.Name, mac: mac})
		}
	}
	return rows, refs
}

func deviceRow(site *config.Site, mac string, rec protocol.DeviceRecord, up bool) table.Row {
	name := site.Nickname(mac)
	if name == "" {
		name = rec.DeviceName
	}
	if name == "" {
		name = "-"
	}

	status, dot := "Offline", "○"
	if up {
		status, dot = "Online", "●"
	}

	row := table.Row{dot, "  " + name, rec.IPAddress, mac, rec.ModelName}
	if site.Columns != nil && site.Columns.Serial {
		row = append(row, rec.SerialNumber)
	}
	if site.Columns != nil && site.Columns.Firmware {
		row = append(row, rec.FirmwareVersion)
	}
	if site.Columns != nil && site.Columns.Port {
		port := ""
		if rec.HTTPPort != 0 {
			port = strconv.Itoa(int(rec.HTTPPort))
		}
		row = append(row, port)
	}
	return append(row, status)
}

// recordFromHistory rebuilds what the table needs from a tracker entry so
// devices from earlier sessions show details before the first scan.
func recordFromHistory(h tracker.History) protocol.DeviceRecord {
	return protocol.DeviceRecord{
		DeviceType:      h.DeviceType,
		MACAddress:      h.MACAddress,
		ModelName:       h.ModelName,
		IPAddress:       h.CurrentIP,
		SubnetMask:      h.CurrentSubnet,
		Gateway:         h.CurrentGateway,
		HTTPPort:        h.CurrentPort,
		FirmwareVersion: h.FirmwareVersion,
		DeviceName:      h.DeviceName,
		SerialNumber:    h.SerialNumber,
		NetworkMode:     protocol.ParseNetworkMode(h.CurrentNetworkMode),
	}
}

func macKey(mac string) string {
	return strings.ToLower(strings.ReplaceAll(mac, "-", ":"))
}
