package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/config"
	"github.com/muurk/easyip/internal/discovery"
	"github.com/muurk/easyip/internal/protocol"
	"github.com/muurk/easyip/internal/render"
	"github.com/muurk/easyip/internal/ui"
)

// Discovery flags, shared by every command that scans.
var (
	scanTimeout   int
	scanInterface string
	scanBroadcast string
)

// Output flags
var (
	outputFormat string
	sortBy       string
	noWarnings   bool
	trackResults bool
)

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Discovery timeout in seconds (default from site preferences)")
	cmd.Flags().StringVarP(&scanInterface, "interface", "i", "", "Interface name or IPv4 address to bind (default all)")
	cmd.Flags().StringVar(&scanBroadcast, "broadcast", "", "Broadcast address (default from site preferences)")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: table, csv, json, text (default table on a terminal, json otherwise)")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "Sort by ip, mac, serial or type (default from site preferences)")
	cmd.Flags().BoolVar(&noWarnings, "no-warnings", false, "Hide IP conflict warnings in table output")
	cmd.Flags().BoolVar(&trackResults, "track", false, "Record the results in the device history database")
}

var discoverCmd = &cobra.Command{
	Use:     "discover",
	Aliases: []string{"scan"},
	Short:   "Discover cameras and recorders on the network",
	Long: `Broadcast an Easy IP Setup search and list every device that answers.

Devices answer regardless of their configured subnet, so this finds cameras
that are unreachable over HTTP. Devices claiming the same IP address are
flagged as conflicts.`,
	Example: `  # Table on a terminal, JSON when piped
  easyip discover

  # Longer scan on one interface
  easyip discover --timeout 10 --interface eth0

  # CSV sorted by serial number
  easyip discover --format csv --sort serial > devices.csv

  # Scan and record the results in the history database
  easyip discover --track`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	addScanFlags(discoverCmd)
	addOutputFlags(discoverCmd)
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	logger, site, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	format, err := resolveFormat(outputFormat, ui.IsTerminal(os.Stdout))
	if err != nil {
		return err
	}
	key, err := resolveSortKey(sortBy, site)
	if err != nil {
		return err
	}
	opts, err := scanOptions(site)
	if err != nil {
		return withHint(err)
	}

	if format == render.FormatTable || format == render.FormatText {
		fmt.Fprintf(os.Stderr, "Searching for devices (timeout: %s)...\n", opts.Timeout)
	}

	session := discovery.NewSession(discovery.WithLogger(logger))
	devices, stats, err := session.DiscoverWithStats(cmd.Context(), opts)
	if err != nil {
		return withHint(err)
	}
	logger.Info("Discovery complete",
		zap.Int("devices", len(devices)),
		zap.Int("responses", stats.Responses),
		zap.Int("parse_failures", stats.ParseFailures),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("local_port", stats.LocalPort),
		zap.Duration("elapsed", stats.Elapsed),
	)

	if trackResults {
		if err := track(site, devices, logger); err != nil {
			return err
		}
	}
	return writeDevices(format, discovery.Sort(devices, key))
}

// writeDevices renders devices to stdout.
func writeDevices(format render.Format, devices []protocol.DeviceRecord) error {
	if format == render.FormatTable {
		return render.Table(os.Stdout, devices, !noWarnings)
	}
	return render.Devices(os.Stdout, format, devices)
}

// scanOptions merges the scan flags over the site preferences.
func scanOptions(site *config.Site) (discovery.Options, error) {
	prefs := site.Preferences

	timeout := prefs.DiscoverTimeoutDuration()
	if scanTimeout > 0 {
		timeout = time.Duration(scanTimeout) * time.Second
	}

	iface := prefs.Interface
	if scanInterface != "" {
		iface = scanInterface
	}
	bind, err := discovery.ResolveInterface(iface)
	if err != nil {
		return discovery.Options{}, err
	}

	broadcast := prefs.BroadcastAddress
	if scanBroadcast != "" {
		broadcast = scanBroadcast
	}

	return discovery.Options{
		Timeout:          timeout,
		BindAddress:      bind,
		BroadcastAddress: broadcast,
	}, nil
}

// scanner returns a discovery pass bound to the site settings, for the
// dashboard and terminal UI.
func scanner(site *config.Site, logger *zap.Logger) (func(ctx context.Context) ([]protocol.DeviceRecord, error), error) {
	opts, err := scanOptions(site)
	if err != nil {
		return nil, err
	}
	session := discovery.NewSession(discovery.WithLogger(logger))
	return func(ctx context.Context) ([]protocol.DeviceRecord, error) {
		return session.Discover(ctx, opts)
	}, nil
}

// resolveFormat validates --format, choosing table for terminals and JSON
// for pipes when it is empty.
func resolveFormat(name string, terminal bool) (render.Format, error) {
	if name == "" {
		if terminal {
			return render.FormatTable, nil
		}
		return render.FormatJSON, nil
	}
	switch f := render.Format(strings.ToLower(name)); f {
	case render.FormatTable, render.FormatCSV, render.FormatJSON, render.FormatText:
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q (want table, csv, json or text)", name)
}

// resolveSortKey validates --sort, falling back to the site preference.
func resolveSortKey(name string, site *config.Site) (discovery.SortKey, error) {
	if name == "" {
		name = site.Preferences.SortBy
	}
	if name == "" {
		return discovery.SortByIP, nil
	}
	return discovery.ParseSortKey(name)
}

// withHint appends troubleshooting advice to discovery errors.
func withHint(err error) error {
	var de *discovery.Error
	if !errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("%w\n\n%s", err, discovery.GetTroubleshootingHint(err))
}

// hintTips extracts the bullet points from a troubleshooting hint.
func hintTips(err error) []string {
	var tips []string
	for _, line := range strings.Split(discovery.GetTroubleshootingHint(err), "\n") {
		if tip, ok := strings.CutPrefix(strings.TrimSpace(line), "• "); ok {
			tips = append(tips, tip)
		}
	}
	return tips
}
