package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/config"
	"github.com/muurk/easyip/internal/discovery"
	"github.com/muurk/easyip/internal/notify"
	"github.com/muurk/easyip/internal/protocol"
	"github.com/muurk/easyip/internal/render"
	"github.com/muurk/easyip/internal/tracker"
)

// Tracker flags
var (
	trackerInput string
	trackerSort  string
	trackerJSON  bool
)

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Device history database",
	Long: `Record discovery results over time and report on them.

Each device is keyed by MAC address. The tracker remembers when a device was
first and last seen and every IP address it has used, so devices that moved
or disappeared can be found later.`,
}

var trackerUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Record a discovery in the history database",
	Long: `Record a discovery in the history database.

Without --input a fresh discovery is run. With --input the JSON written by
'easyip discover --format json' is read from a file, or from stdin when the
file is "-". Events are published to MQTT when a broker is configured.`,
	Example: `  # Discover and record
  easyip tracker update

  # Record a saved discovery
  easyip discover --format json > scan.json
  easyip tracker update --input scan.json

  # Pipe
  easyip discover --format json | easyip tracker update --input -`,
	Args: cobra.NoArgs,
	RunE: runTrackerUpdate,
}

var trackerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked devices",
	Example: `  easyip tracker list
  easyip tracker list --sort first_seen
  easyip tracker list --json`,
	Args: cobra.NoArgs,
	RunE: runTrackerList,
}

var trackerMissingCmd = &cobra.Command{
	Use:   "missing",
	Short: "List devices not seen within the missing window",
	Args:  cobra.NoArgs,
	RunE:  runTrackerMissing,
}

var trackerHistoryCmd = &cobra.Command{
	Use:     "history <mac>",
	Short:   "Show one device and its IP address history",
	Example: `  easyip tracker history a0:29:19:3e:ab:91`,
	Args:    cobra.ExactArgs(1),
	RunE:    runTrackerHistory,
}

var trackerStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count tracked devices by status",
	Args:  cobra.NoArgs,
	RunE:  runTrackerStats,
}

var trackerExportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write the whole database as JSON",
	Example: `  easyip tracker export > history.json`,
	Args:    cobra.NoArgs,
	RunE:    runTrackerExport,
}

func init() {
	trackerUpdateCmd.Flags().StringVar(&trackerInput, "input", "", `Discovery JSON to record ("-" for stdin); runs a discovery when empty`)
	addScanFlags(trackerUpdateCmd)

	trackerListCmd.Flags().StringVarP(&trackerSort, "sort", "s", tracker.SortLastSeen, "Sort by last_seen, first_seen, ip, mac or name")
	for _, cmd := range []*cobra.Command{trackerListCmd, trackerMissingCmd, trackerHistoryCmd, trackerStatsCmd} {
		cmd.Flags().BoolVar(&trackerJSON, "json", false, "Print as JSON")
	}

	trackerCmd.AddCommand(trackerUpdateCmd, trackerListCmd, trackerMissingCmd, trackerHistoryCmd, trackerStatsCmd, trackerExportCmd)
	rootCmd.AddCommand(trackerCmd)
}

// withStore runs fn against the site's tracker database.
func withStore(fn func(site *config.Site, store *tracker.Store, logger *zap.Logger) error) error {
	logger, site, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := openStore(site, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(site, store, logger)
}

func runTrackerUpdate(cmd *cobra.Command, args []string) error {
	logger, site, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	var devices []protocol.DeviceRecord
	if trackerInput != "" {
		devices, err = readDiscovery(trackerInput)
	} else {
		var opts discovery.Options
		opts, err = scanOptions(site)
		if err == nil {
			devices, err = discovery.NewSession(discovery.WithLogger(logger)).Discover(cmd.Context(), opts)
		}
	}
	if err != nil {
		return withHint(err)
	}
	return track(site, devices, logger)
}

func readDiscovery(path string) ([]protocol.DeviceRecord, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open discovery file: %w", err)
		}
		defer f.Close()
		r = f
	}
	return render.ParseDiscoveryJSON(r)
}

// track records devices in the history database, publishes the resulting
// events and prints a summary to stderr.
func track(site *config.Site, devices []protocol.DeviceRecord, logger *zap.Logger) error {
	store, err := openStore(site, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	now := time.Now()
	result, err := store.Update(devices, now)
	if err != nil {
		return fmt.Errorf("failed to update history: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tracked %d devices: %d new, %d updated, %d IP changes\n",
		result.Seen, len(result.New), len(result.Updated), len(result.IPChanged))
	for _, u := range result.IPChanged {
		fmt.Fprintf(os.Stderr, "  %s moved %s -> %s\n", u.Device.MACAddress, u.Changes.OldIP, u.Changes.NewIP)
	}

	publisher, err := newPublisher(site, logger)
	if err != nil {
		// The history is already saved; a missing broker is not fatal.
		logger.Warn("MQTT unavailable, events not published", zap.Error(err))
		return nil
	}
	defer publisher.Close()

	events := notify.EventsFromUpdate(result, discovery.DetectConflicts(devices), now)
	if err := notify.PublishAll(publisher, events); err != nil {
		logger.Warn("Failed to publish events", zap.Error(err))
	}
	return nil
}

// newPublisher connects to the configured MQTT broker, or returns a Nop
// publisher when none is set.
func newPublisher(site *config.Site, logger *zap.Logger) (notify.Publisher, error) {
	cfg := site.Preferences.MQTT
	if cfg.Broker == "" {
		return notify.Nop{}, nil
	}
	return notify.NewMQTTPublisher(cfg, logger)
}

func runTrackerList(cmd *cobra.Command, args []string) error {
	return withStore(func(site *config.Site, store *tracker.Store, logger *zap.Logger) error {
		devices, err := store.List(trackerSort)
		if err != nil {
			return err
		}
		if trackerJSON {
			return writeJSON(devices)
		}
		return render.History(os.Stdout, devices, time.Now(), site.Preferences.MissingAfter())
	})
}

func runTrackerMissing(cmd *cobra.Command, args []string) error {
	return withStore(func(site *config.Site, store *tracker.Store, logger *zap.Logger) error {
		window := site.Preferences.MissingAfter()
		devices, err := store.Missing(time.Now(), window)
		if err != nil {
			return err
		}
		if trackerJSON {
			return writeJSON(devices)
		}
		if len(devices) == 0 {
			fmt.Printf("No devices missing for more than %s.\n", window)
			return nil
		}
		return render.History(os.Stdout, devices, time.Now(), window)
	})
}

func runTrackerHistory(cmd *cobra.Command, args []string) error {
	return withStore(func(site *config.Site, store *tracker.Store, logger *zap.Logger) error {
		h, err := store.Get(args[0])
		if errors.Is(err, tracker.ErrNotFound) {
			return fmt.Errorf("device %s is not tracked", args[0])
		}
		if err != nil {
			return err
		}
		if trackerJSON {
			return writeJSON(h)
		}
		return render.DeviceHistory(os.Stdout, h, time.Now(), site.Preferences.MissingAfter())
	})
}

func runTrackerStats(cmd *cobra.Command, args []string) error {
	return withStore(func(site *config.Site, store *tracker.Store, logger *zap.Logger) error {
		st, err := store.Stats(time.Now(), site.Preferences.MissingAfter())
		if err != nil {
			return err
		}
		if trackerJSON {
			return writeJSON(st)
		}
		return render.Stats(os.Stdout, st)
	})
}

func runTrackerExport(cmd *cobra.Command, args []string) error {
	return withStore(func(site *config.Site, store *tracker.Store, logger *zap.Logger) error {
		return store.Export(os.Stdout)
	})
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
