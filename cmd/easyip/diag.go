package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/easyip/internal/discovery"
	"github.com/muurk/easyip/internal/ui"
)

var diagJSON bool

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Check that this machine can send discovery broadcasts",
	Long: `Run network diagnostics for discovery.

Lists local IPv4 interfaces, binds a broadcast UDP socket, checks whether the
Easy IP source port 10669 is free, and sends a probe to the device port. No
device needs to be present; devices ignore the probe.`,
	Example: `  easyip diag
  easyip diag --json`,
	Args: cobra.NoArgs,
	RunE: runDiag,
}

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List IPv4 interfaces discovery can bind to",
	Args:  cobra.NoArgs,
	RunE:  runInterfaces,
}

func init() {
	diagCmd.Flags().BoolVar(&diagJSON, "json", false, "Print the report as JSON")
	interfacesCmd.Flags().BoolVar(&diagJSON, "json", false, "Print as JSON")
	rootCmd.AddCommand(diagCmd, interfacesCmd)
}

func runDiag(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	session := discovery.NewSession(discovery.WithLogger(logger))

	if diagJSON {
		report := session.Diagnose(cmd.Context())
		if err := writeJSON(report); err != nil {
			return err
		}
		if !report.Healthy() {
			return errors.New("diagnostics failed")
		}
		return nil
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:        "Network Diagnostics",
		Command:      "easyip diag",
		Steps:        []string{"Enumerate interfaces", "Bind broadcast socket", "Check source port 10669", "Send probe to port 10670"},
		Troubleshoot: diagTips,
	})

	return runner.Run(func(onStep ui.StepCallback) ([]ui.Param, error) {
		report := session.Diagnose(cmd.Context())

		onStep(1, ui.StepComplete, fmt.Sprintf("%d IPv4 addresses", len(report.LocalIPs)))
		if !report.Bind.OK {
			onStep(2, ui.StepFailed, report.Bind.Detail)
			return nil, &diagError{check: "bind", detail: report.Bind.Detail}
		}
		onStep(2, ui.StepComplete, report.Bind.Detail)

		if report.SourcePort.OK {
			onStep(3, ui.StepComplete, report.SourcePort.Detail)
		} else {
			onStep(3, ui.StepSkipped, report.SourcePort.Detail)
		}

		if !report.Broadcast.OK {
			onStep(4, ui.StepFailed, report.Broadcast.Detail)
			return nil, &diagError{check: "broadcast", detail: report.Broadcast.Detail}
		}
		onStep(4, ui.StepComplete, report.Broadcast.Detail)

		return []ui.Param{
			{Key: "Hostname", Value: report.Hostname},
			{Key: "Local IPs", Value: orNone(strings.Join(report.LocalIPs, ", "))},
		}, nil
	})
}

type diagError struct {
	check  string
	detail string
}

func (e *diagError) Error() string {
	return e.check + " check failed: " + e.detail
}

func diagTips(err error) []string {
	var de *diagError
	if !errors.As(err, &de) {
		return nil
	}
	if de.check == "bind" {
		return []string{
			"Another program may hold the UDP socket; close other setup tools",
			"Check that the host firewall allows UDP on ports 10669-10670",
		}
	}
	tips := []string{
		"Verify a network interface is up and has an IPv4 address",
		"Some networks and VPN adapters block broadcast traffic",
	}
	if strings.Contains(strings.ToLower(de.detail), "permission") {
		tips = append(tips, "The operating system refused the broadcast; check firewall or run with more privileges")
	}
	return tips
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	list := discovery.Interfaces()
	if diagJSON {
		return writeJSON(list)
	}
	for _, iface := range list {
		fmt.Fprintf(os.Stdout, "%-16s %-15s broadcast %-15s %s\n", iface.Name, iface.IP, iface.Broadcast, iface.MAC)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
