package main

import (
	"bytes"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/discovery"
	"github.com/muurk/easyip/internal/protocol"
	"github.com/muurk/easyip/internal/ui"
)

// Configure flags
var (
	newIP         string
	newSubnet     string
	newGateway    string
	newPort       uint16
	assumeYes     bool
	noVerify      bool
	configureWait int
)

var errNoAck = errors.New("no acknowledgement from device")

var configureCmd = &cobra.Command{
	Use:   "configure <mac>",
	Short: "Assign a device's IP address, subnet, gateway and HTTP port",
	Long: `Broadcast a configuration request to the device with the given MAC address.

The device does not need to be reachable at its current address: the request
is broadcast and only the device whose MAC matches applies it. After the
device acknowledges, a discovery confirms it answers at the new address
unless --no-verify is set.`,
	Example: `  # Move a camera to 192.168.1.50
  easyip configure a0:29:19:3e:ab:91 --ip 192.168.1.50 --gateway 192.168.1.1

  # Different subnet and HTTP port, no confirmation prompt
  easyip configure A0-29-19-3E-AB-91 --ip 10.0.0.20 --subnet 255.255.0.0 \
      --gateway 10.0.0.1 --port 8080 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().StringVar(&newIP, "ip", "", "New IPv4 address (required)")
	configureCmd.Flags().StringVar(&newSubnet, "subnet", "255.255.255.0", "New subnet mask")
	configureCmd.Flags().StringVar(&newGateway, "gateway", "", "New default gateway (required)")
	configureCmd.Flags().Uint16Var(&newPort, "port", 80, "New HTTP port")
	configureCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	configureCmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip the verification discovery")
	configureCmd.Flags().IntVar(&configureWait, "wait", 5, "Seconds to wait for the acknowledgement")
	addScanFlags(configureCmd)
	_ = configureCmd.MarkFlagRequired("ip")
	_ = configureCmd.MarkFlagRequired("gateway")

	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	logger, site, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	mac := args[0]
	if err := validateConfigure(mac, newIP, newSubnet, newGateway); err != nil {
		return err
	}
	opts, err := scanOptions(site)
	if err != nil {
		return withHint(err)
	}

	if !assumeYes && !ui.ConfigureConfirmation(os.Stdin, os.Stdout, mac, newIP) {
		return nil
	}

	req := discovery.ConfigureRequest{
		MAC:              mac,
		IP:               newIP,
		Subnet:           newSubnet,
		Gateway:          newGateway,
		Port:             newPort,
		BindAddress:      opts.BindAddress,
		BroadcastAddress: opts.BroadcastAddress,
	}
	session := discovery.NewSession(discovery.WithLogger(logger))

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "Device Configuration",
		Command: "easyip configure " + mac,
		Params: []ui.Param{
			{Key: "MAC", Value: mac},
			{Key: "New IP", Value: newIP},
			{Key: "Subnet", Value: newSubnet},
			{Key: "Gateway", Value: newGateway},
			{Key: "HTTP Port", Value: strconv.Itoa(int(newPort))},
		},
		Steps:        []string{"Send configuration", "Wait for acknowledgement", "Verify new address"},
		Troubleshoot: configureTips,
	})

	return runner.Run(func(onStep ui.StepCallback) ([]ui.Param, error) {
		wait := time.Duration(configureWait) * time.Second

		onStep(1, ui.StepRunning, "")
		onStep(1, ui.StepComplete, "broadcast to "+opts.BroadcastAddress)

		onStep(2, ui.StepRunning, "")
		ack, err := session.Configure(cmd.Context(), req, wait)
		if err != nil {
			onStep(2, ui.StepFailed, discovery.GetShortErrorMessage(err))
			return nil, err
		}
		if !ack {
			onStep(2, ui.StepFailed, "timed out after "+wait.String())
			return nil, errNoAck
		}
		onStep(2, ui.StepComplete, "acknowledged")

		details := []ui.Param{{Key: "Device", Value: mac}, {Key: "Address", Value: newIP}}
		if noVerify {
			onStep(3, ui.StepSkipped, "--no-verify")
			return details, nil
		}

		onStep(3, ui.StepRunning, "")
		found, err := verifyAddress(cmd, session, opts, mac, newIP)
		if err != nil {
			// Configuration was applied; verification failing is reported
			// but does not fail the command.
			logger.Warn("Verification discovery failed", zap.Error(err))
			onStep(3, ui.StepSkipped, discovery.GetShortErrorMessage(err))
			return details, nil
		}
		if !found {
			onStep(3, ui.StepSkipped, "device not seen yet, it may still be restarting")
			return details, nil
		}
		onStep(3, ui.StepComplete, "answering at "+newIP)
		return append(details, ui.Param{Key: "Verified", Value: "yes"}), nil
	})
}

// validateConfigure rejects bad input before the confirmation prompt.
func validateConfigure(mac, ip, subnet, gateway string) error {
	if _, err := protocol.ParseMAC(mac); err != nil {
		return err
	}
	for _, f := range []struct{ field, value string }{
		{"ip", ip}, {"subnet", subnet}, {"gateway", gateway},
	} {
		if _, err := protocol.ParseIPv4(f.field, f.value); err != nil {
			return err
		}
	}
	return nil
}

// verifyAddress rediscovers and reports whether mac now answers with ip.
func verifyAddress(cmd *cobra.Command, session *discovery.Session, opts discovery.Options, mac, ip string) (bool, error) {
	devices, err := session.Discover(cmd.Context(), opts)
	if err != nil {
		return false, err
	}
	want, err := protocol.ParseMAC(mac)
	if err != nil {
		return false, err
	}
	for _, d := range devices {
		if got, err := protocol.ParseMAC(d.MACAddress); err == nil && bytes.Equal(got, want) {
			return d.IPAddress == ip, nil
		}
	}
	return false, nil
}

func configureTips(err error) []string {
	if errors.Is(err, errNoAck) {
		return []string{
			"Check the MAC address with 'easyip discover'",
			"Some models only accept configuration for a few minutes after power-on",
			"Devices must be on the same network segment as this machine",
			"Try a longer --wait",
		}
	}
	return hintTips(err)
}
