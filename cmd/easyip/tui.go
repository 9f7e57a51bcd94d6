package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/tracker"
	"github.com/muurk/easyip/internal/tui"
)

var noHistory bool

var tuiCmd = &cobra.Command{
	Use:     "tui",
	Aliases: []string{"monitor"},
	Short:   "Interactive device monitor",
	Long: `Launch the interactive terminal monitor.

Devices are shown in the groups defined in the site file. New devices land
in the "Ungrouped" group. Press m to rescan on the site's monitor interval,
g to move a device to another group and w to save the groups.

Scans are recorded in the history database unless --no-history is set.
Set --log-level only when redirecting stderr, since log lines draw over the
interface.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record scans in the history database")
	addScanFlags(tuiCmd)
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	logger, site, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	scan, err := scanner(site, logger)
	if err != nil {
		return withHint(err)
	}

	var store *tracker.Store
	if !noHistory {
		store, err = openStore(site, logger)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	p := tea.NewProgram(tui.NewModel(site, scan, store, logger), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal UI: %w", err)
	}
	logger.Debug("Monitor closed", zap.String("site", site.Path()))
	return nil
}
