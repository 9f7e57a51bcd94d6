package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/config"
	"github.com/muurk/easyip/internal/logging"
	"github.com/muurk/easyip/internal/protocol"
	"github.com/muurk/easyip/internal/tracker"
)

// ScanFunc performs one discovery pass.
type ScanFunc func(ctx context.Context) ([]protocol.DeviceRecord, error)

// Screen is the active view.
type Screen string

const (
	ScreenTable   Screen = "table"
	ScreenDetails Screen = "details"
	ScreenMove    Screen = "move"
)

type scanRequestMsg struct{}

type scanCompleteMsg struct {
	devices []protocol.DeviceRecord
	err     error
	at      time.Time
}

// monitorTickMsg carries the generation it was scheduled under so ticks
// from an earlier monitor session are ignored.
type monitorTickMsg struct {
	gen int
}

// Model is the site monitor: the operator's groups as a table, refreshed by
// manual or periodic scans.
type Model struct {
	site   *config.Site
	scan   ScanFunc
	store  *tracker.Store
	logger *zap.Logger

	known  map[string]protocol.DeviceRecord
	online map[string]bool
	refs   []rowRef

	Screen     Screen
	Scanning   bool
	Monitoring bool
	monitorGen int
	LastScan   time.Time
	Dirty      bool
	quitArmed  bool
	Status     string
	Err        error

	Width  int
	Height int

	table      table.Model
	spinner    spinner.Model
	input      textinput.Model
	help       help.Model
	keys       keyMap
	promptKeys promptKeyMap
	detailKeys detailsKeyMap
}

// NewModel creates the monitor for site. store may be nil; when set, scans
// are recorded in it and its history seeds device details.
func NewModel(site *config.Site, scan ScanFunc, store *tracker.Store, logger *zap.Logger) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = config.UngroupedName
	input.CharLimit = 64
	input.Width = 40

	km := table.DefaultKeyMap()
	// g and space belong to the monitor.
	km.GotoTop = key.NewBinding(key.WithKeys("home"))
	km.PageDown = key.NewBinding(key.WithKeys("f", "pgdown"))

	t := table.New(
		table.WithColumns(columns(site.Columns)),
		table.WithFocused(true),
		table.WithHeight(15),
		table.WithKeyMap(km),
	)
	t.SetStyles(tableStyles())

	m := Model{
		site:       site,
		scan:       scan,
		store:      store,
		logger:     logging.OrNop(logger),
		known:      make(map[string]protocol.DeviceRecord),
		online:     make(map[string]bool),
		Screen:     ScreenTable,
		table:      t,
		spinner:    s,
		input:      input,
		help:       help.New(),
		keys:       newKeyMap(),
		promptKeys: newPromptKeyMap(),
		detailKeys: newDetailsKeyMap(),
	}

	if store != nil {
		history, err := store.List(tracker.SortMAC)
		if err != nil {
			m.logger.Warn("Failed to load device history", zap.Error(err))
		}
		for _, h := range history {
			m.known[macKey(h.MACAddress)] = recordFromHistory(h)
		}
	}
	m.refresh()
	return m
}

// Init starts with a scan so the table reflects the network.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return scanRequestMsg{} }
}

func (m *Model) refresh() {
	rows, refs := buildRows(m.site, m.known, m.online)
	m.table.SetColumns(columns(m.site.Columns))
	m.table.SetRows(rows)
	m.refs = refs
	if c := m.table.Cursor(); c >= len(refs) && len(refs) > 0 {
		m.table.SetCursor(len(refs) - 1)
	}
}

func (m Model) selected() (rowRef, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.refs) {
		return rowRef{}, false
	}
	return m.refs[c], true
}

func (m *Model) startScan() tea.Cmd {
	if m.Scanning {
		return nil
	}
	m.Scanning = true
	m.Err = nil
	scan := m.scan
	return tea.Batch(
		func() tea.Msg {
			devices, err := scan(context.Background())
			return scanCompleteMsg{devices: devices, err: err, at: time.Now()}
		},
		m.spinner.Tick,
	)
}

func (m Model) monitorTick() tea.Cmd {
	gen := m.monitorGen
	return tea.Tick(m.site.Preferences.MonitorIntervalDuration(), func(time.Time) tea.Msg {
		return monitorTickMsg{gen: gen}
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.table.SetWidth(msg.Width - 6)
		m.table.SetHeight(max(msg.Height-12, 3))
		return m, nil

	case scanRequestMsg:
		cmd := m.startScan()
		return m, cmd

	case scanCompleteMsg:
		m.applyScan(msg)
		return m, nil

	case monitorTickMsg:
		if !m.Monitoring || msg.gen != m.monitorGen {
			return m, nil
		}
		cmd := tea.Batch(m.startScan(), m.monitorTick())
		return m, cmd

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.Screen {
		case ScreenMove:
			return m.updateMove(msg)
		case ScreenDetails:
			return m.updateDetails(msg)
		default:
			return m.updateTable(msg)
		}
	}
	return m, nil
}

func (m *Model) applyScan(msg scanCompleteMsg) {
	m.Scanning = false
	if msg.err != nil {
		m.Err = msg.err
		m.logger.Warn("Scan failed", zap.Error(msg.err))
		return
	}

	m.online = make(map[string]bool, len(msg.devices))
	macs := make([]string, 0, len(msg.devices))
	for _, d := range msg.devices {
		mac := macKey(d.MACAddress)
		if mac == "" {
			continue
		}
		m.known[mac] = d
		m.online[mac] = true
		macs = append(macs, mac)
	}

	added := m.site.AssignNew(macs, config.UngroupedName)
	if len(added) > 0 {
		m.Dirty = true
	}

	if m.store != nil {
		if _, err := m.store.Update(msg.devices, msg.at); err != nil {
			m.logger.Warn("Tracker update failed", zap.Error(err))
		}
	}

	m.LastScan = msg.at
	m.Status = fmt.Sprintf("Found %d devices (%d new)", len(macs), len(added))
	m.refresh()
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Quit) {
		m.quitArmed = false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Scan):
		cmd := m.startScan()
		return m, cmd

	case key.Matches(msg, m.keys.Monitor):
		m.Monitoring = !m.Monitoring
		m.monitorGen++
		if !m.Monitoring {
			m.Status = "Monitoring stopped"
			return m, nil
		}
		m.Status = fmt.Sprintf("Monitoring every %s", m.site.Preferences.MonitorIntervalDuration())
		cmd := tea.Batch(m.startScan(), m.monitorTick())
		return m, cmd

	case key.Matches(msg, m.keys.Toggle):
		if ref, ok := m.selected(); ok && ref.kind == rowGroup {
			m.toggleGroup(ref.group)
		}
		return m, nil

	case key.Matches(msg, m.keys.Details):
		ref, ok := m.selected()
		if !ok {
			return m, nil
		}
		if ref.kind == rowGroup {
			m.toggleGroup(ref.group)
			return m, nil
		}
		m.Screen = ScreenDetails
		return m, nil

	case key.Matches(msg, m.keys.Move):
		if ref, ok := m.selected(); ok && ref.kind == rowDevice {
			m.Screen = ScreenMove
			m.input.SetValue("")
			m.input.Placeholder = ref.group
			cmd := m.input.Focus()
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Save):
		if err := m.site.Save(); err != nil {
			m.Err = fmt.Errorf("save site: %w", err)
			return m, nil
		}
		m.Dirty = false
		m.Status = "Saved " + m.site.Path()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// quit exits, asking for a second press when the site has unsaved changes.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.Dirty && !m.quitArmed {
		m.quitArmed = true
		m.Status = "Unsaved changes: w to save, q again to quit"
		return m, nil
	}
	return m, tea.Quit
}

func (m *Model) toggleGroup(name string) {
	if g := m.site.Group(name); g != nil {
		g.Expanded = !g.Expanded
		m.Dirty = true
		m.refresh()
	}
}

func (m Model) updateDetails(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.detailKeys.Close):
		m.Screen = ScreenTable
	case key.Matches(msg, m.detailKeys.Quit):
		m.Screen = ScreenTable
		return m.quit()
	}
	return m, nil
}

func (m Model) updateMove(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.promptKeys.Cancel):
		m.Screen = ScreenTable
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.promptKeys.Confirm):
		m.Screen = ScreenTable
		m.input.Blur()
		ref, ok := m.selected()
		name := strings.TrimSpace(m.input.Value())
		if !ok || ref.kind != rowDevice || name == "" || name == ref.group {
			return m, nil
		}
		if m.site.Group(name) == nil {
			if _, err := m.site.AddGroup(name); err != nil {
				m.Err = err
				return m, nil
			}
		}
		if err := m.site.MoveDevice(ref.mac, name); err != nil {
			m.Err = err
			return m, nil
		}
		m.Dirty = true
		m.Status = fmt.Sprintf("Moved %s to %s", ref.mac, name)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the current screen
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")

	var helpText string
	switch m.Screen {
	case ScreenDetails:
		b.WriteString(m.renderDetails())
		helpText = m.help.View(m.detailKeys)
	case ScreenMove:
		b.WriteString(PanelStyle.Render(
			"Move to group (" + strings.Join(m.site.GroupNames(), ", ") + ")\n\n" + m.input.View(),
		))
		helpText = m.help.View(m.promptKeys)
	default:
		helpText = m.help.View(m.keys)
	}

	b.WriteString("\n")
	if m.Err != nil {
		b.WriteString(ErrorStyle.Render("✗ " + m.Err.Error()))
	} else if m.Status != "" {
		b.WriteString(SubtitleStyle.Render(m.Status))
	}

	return RenderApplicationContainer(b.String(), helpText, m.Width, m.Height)
}

func (m Model) statusLine() string {
	total, up := 0, 0
	for _, g := range m.site.Groups {
		u, t := groupCounts(g, m.online)
		up += u
		total += t
	}

	parts := []string{
		TitleStyle.Render(m.site.Name),
		fmt.Sprintf("Devices: %d (%s, %s)", total,
			OnlineStyle.Render(fmt.Sprintf("Online: %d", up)),
			OfflineStyle.Render(fmt.Sprintf("Offline: %d", total-up))),
	}
	if m.Monitoring {
		parts = append(parts, OnlineStyle.Render("Monitor ON"))
	} else {
		parts = append(parts, SubtitleStyle.Render("Monitor OFF"))
	}
	if !m.LastScan.IsZero() {
		parts = append(parts, "Last scan: "+m.LastScan.Format("15:04:05"))
	}
	if m.Scanning {
		parts = append(parts, m.spinner.View()+" scanning")
	}
	if m.Dirty {
		parts = append(parts, WarningStyle.Render("modified"))
	}
	return strings.Join(parts, " | ")
}

func (m Model) renderDetails() string {
	ref, ok := m.selected()
	if !ok || ref.kind != rowDevice {
		return ""
	}
	rec := m.known[ref.mac]

	status := OfflineStyle.Render("Offline")
	if m.online[ref.mac] {
		status = OnlineStyle.Render("Online")
	}

	lines := []string{
		TitleStyle.Render(orDash(rec.DeviceName)),
		"",
		fmt.Sprintf("Status:       %s", status),
		fmt.Sprintf("Group:        %s", ref.group),
	}
	if nick := m.site.Nickname(ref.mac); nick != "" {
		lines = append(lines, fmt.Sprintf("Nickname:     %s", nick))
	}
	lines = append(lines,
		fmt.Sprintf("Type:         %s", rec.DeviceType.Label()),
		fmt.Sprintf("Model:        %s", orDash(rec.ModelName)),
		fmt.Sprintf("Serial:       %s", orDash(rec.SerialNumber)),
		fmt.Sprintf("MAC Address:  %s", ref.mac),
		fmt.Sprintf("IP Address:   %s", orDash(rec.IPAddress)),
		fmt.Sprintf("Subnet Mask:  %s", orDash(rec.SubnetMask)),
		fmt.Sprintf("Gateway:      %s", orDash(rec.Gateway)),
		fmt.Sprintf("HTTP Port:    %d", rec.HTTPPort),
		fmt.Sprintf("Network Mode: %s", rec.NetworkMode),
		fmt.Sprintf("Firmware:     %s", orDash(rec.FirmwareVersion)),
	)

	if m.store != nil {
		if h, err := m.store.Get(ref.mac); err == nil {
			lines = append(lines, "",
				fmt.Sprintf("First seen:   %s", h.FirstSeen.Format(time.DateTime)),
				fmt.Sprintf("Last seen:    %s", h.LastSeen.Format(time.DateTime)),
				fmt.Sprintf("Discoveries:  %d", h.TotalDiscoveries),
			)
			if len(h.IPHistory) > 1 {
				lines = append(lines, "IP history:")
				for _, c := range h.IPHistory {
					lines = append(lines, fmt.Sprintf("  %s  %s", c.Timestamp.Format(time.DateTime), c.IP))
				}
			}
		}
	}

	return PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
