// Package tui implements the terminal site monitor.
//
// The monitor shows the operator's device groups from the site file as a
// single table. Each group has a header row with its online/total count,
// followed by its devices while the group is expanded. A device is online
// when it answered the most recent scan.
//
// # Keys
//
//	s        scan now
//	m        toggle monitoring (rescan every monitor_interval seconds)
//	enter    device details, or expand/collapse on a group row
//	space    expand/collapse group
//	g        move the selected device to a group (created if new)
//	w        save the site file
//	q        quit (asks again when there are unsaved changes)
//
// Devices found for the first time land in the Ungrouped group.
//
// # Framework Components
//
//   - bubbles/table: group and device rows
//   - bubbles/spinner: scan indicator
//   - bubbles/textinput: group name prompt
//   - bubbles/help, bubbles/key: key bindings and footer help
//   - lipgloss: styling and the application frame
//
// # Usage Example
//
//	model := tui.NewModel(site, scan, store, logger)
//	program := tea.NewProgram(model, tea.WithAltScreen())
//	if _, err := program.Run(); err != nil {
//	    log.Fatal(err)
//	}
package tui
