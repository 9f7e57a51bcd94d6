package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/capture"
	"github.com/muurk/easyip/internal/discovery"
	"github.com/muurk/easyip/internal/ui"
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture>",
	Short: "Decode device responses from a pcap or pcapng file",
	Long: `Read a packet capture and decode every Easy IP Setup response in it.

Useful for inspecting a discovery captured with tcpdump or Wireshark on
another machine. Only UDP datagrams from port 10669 are considered; the
first response per MAC wins.`,
	Example: `  tcpdump -i eth0 -w easyip.pcap udp port 10669
  easyip replay easyip.pcap
  easyip replay easyip.pcapng --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	addOutputFlags(replayCmd)
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
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

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	devices, stats, err := capture.Replay(f, logger)
	if err != nil {
		return err
	}
	logger.Info("Replay complete",
		zap.String("file", args[0]),
		zap.Int("packets", stats.Packets),
		zap.Int("candidates", stats.Candidates),
		zap.Int("parse_failures", stats.ParseFailures),
		zap.Int("duplicates", stats.Duplicates),
	)

	if trackResults {
		if err := track(site, devices, logger); err != nil {
			return err
		}
	}
	return writeDevices(format, discovery.Sort(devices, key))
}
