// Easyip finds Panasonic network cameras and recorders on the local segment
// and assigns their network settings.
//
// It speaks the Easy IP Setup broadcast protocol on UDP ports 10669/10670,
// so devices are found even when their current address is on another
// subnet. Discovery results can be rendered, replayed from packet captures,
// tracked over time, served on a live dashboard, or browsed in a terminal UI.
//
// Usage:
//
//	easyip [command] [flags]
//
// See 'easyip --help' for available commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/config"
	"github.com/muurk/easyip/internal/logging"
	"github.com/muurk/easyip/internal/tracker"
	"github.com/muurk/easyip/internal/urls"
	"github.com/muurk/easyip/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	logLevel   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "easyip",
	Short: "Panasonic Easy IP Setup discovery and configuration",
	Long: `Find Panasonic network cameras and recorders on the local network and
change their IP settings, without knowing their current address.

Devices are discovered with a UDP broadcast on ports 10669/10670. Results can
be printed as a table, CSV or JSON, tracked over time in a local history
database, published to MQTT, or watched live in a web dashboard or terminal UI.

Settings and device groups are read from the site file
(see --config, default ~/.config/easyip/site.yaml).

Report unsupported models at ` + urls.Issues + `.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(version.Get())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "easyip %s\n", version.Full())
		return nil
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error); defaults to $"+logging.LogLevelEnvVar+", silent when unset")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Site file (default is the per-user config directory)")

	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print as JSON")
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the logger selected by --log-level.
func newLogger() (*zap.Logger, error) {
	return logging.New(logLevel)
}

// loadSite reads the site file named by --config, or the default one.
func loadSite() (*config.Site, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadDefault()
}

// openStore opens the tracker database configured for site.
func openStore(site *config.Site, logger *zap.Logger) (*tracker.Store, error) {
	path, err := site.DatabasePath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return tracker.Open(path, logger)
}

// setup loads the logger and site shared by most commands.
func setup() (*zap.Logger, *config.Site, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	site, err := loadSite()
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Loaded site", zap.String("path", site.Path()), zap.String("name", site.Name))
	return logger, site, nil
}
