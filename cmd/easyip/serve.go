package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/server"
)

// Serve flags
var (
	listenAddr   string
	advertise    bool
	autoScan     bool
	autoInterval int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard",
	Long: `Serve a live device dashboard over HTTP.

The dashboard triggers discoveries, records them in the history database,
publishes events to MQTT when a broker is configured, and pushes results to
browsers over a websocket. With --auto-scan it also scans on an interval.

API:
  GET  /api/devices          Tracked devices with status
  GET  /api/devices/{mac}    One device
  GET  /api/stats            Counts by status
  GET  /api/conflicts        IP conflicts from the last scan
  GET  /api/export           The whole history database
  POST /api/scan             Start a scan (409 while one is running)
  POST /api/auto-scan        Enable or disable auto-scan
  GET  /ws                   Scan events`,
	Example: `  # Dashboard on the default address
  easyip serve

  # Scan every 10 minutes and announce the dashboard over mDNS
  easyip serve --listen :8080 --auto-scan --interval 600 --advertise`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var peersTimeout int

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Find other easyip dashboards on the network",
	Long: `Browse mDNS for dashboards started with 'easyip serve --advertise'.`,
	Args:  cobra.NoArgs,
	RunE:  runPeers,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (default from site preferences)")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the dashboard over mDNS")
	serveCmd.Flags().BoolVar(&autoScan, "auto-scan", false, "Scan on an interval")
	serveCmd.Flags().IntVar(&autoInterval, "interval", 0, "Auto-scan interval in seconds (default from site preferences)")
	addScanFlags(serveCmd)

	peersCmd.Flags().IntVar(&peersTimeout, "timeout", int(server.DefaultBrowseTimeout/time.Second), "Browse timeout in seconds")

	rootCmd.AddCommand(serveCmd, peersCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, site, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	prefs := site.Preferences
	cfg := server.Config{
		Listen:           prefs.Listen,
		MissingAfter:     prefs.MissingAfter(),
		AutoScan:         autoScan,
		AutoScanInterval: prefs.AutoScanIntervalDuration(),
		Advertise:        advertise,
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if autoInterval > 0 {
		cfg.AutoScanInterval = time.Duration(autoInterval) * time.Second
	}

	scan, err := scanner(site, logger)
	if err != nil {
		return withHint(err)
	}

	store, err := openStore(site, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	publisher, err := newPublisher(site, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, store, server.ScannerFunc(scan), publisher, logger)
	fmt.Fprintf(os.Stderr, "Dashboard on http://%s/ (Ctrl+C to stop)\n", displayAddr(cfg.Listen))
	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("Dashboard stopped")
	return nil
}

// displayAddr turns a wildcard listen address into something clickable.
func displayAddr(listen string) string {
	if len(listen) > 0 && listen[0] == ':' {
		return "localhost" + listen
	}
	return listen
}

func runPeers(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	timeout := time.Duration(peersTimeout) * time.Second
	fmt.Fprintf(os.Stderr, "Browsing for dashboards (timeout: %s)...\n", timeout)

	peers, err := server.BrowseDashboards(cmd.Context(), timeout)
	if err != nil {
		return err
	}
	logger.Debug("Browse complete", zap.Int("dashboards", len(peers)))

	if len(peers) == 0 {
		fmt.Println("No dashboards found.")
		return nil
	}
	for _, p := range peers {
		fmt.Printf("%-32s %s\n", p.Instance, p.URL())
	}
	return nil
}
