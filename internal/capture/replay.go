// Package capture replays recorded Easy IP traffic through the response
// parser.
//
// Captures taken with tcpdump or Wireshark (pcap or pcapng) are read with
// gopacket's pure-Go readers, so no libpcap is needed. Only datagrams
// travelling device to tool are considered: UDP with source port 10670 or
// destination port 10669. Everything else in the file is counted and
// skipped.
package capture

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/logging"
	"github.com/muurk/easyip/internal/protocol"
)

// pcapng section header block type, as it appears on disk in either byte
// order.
var ngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

// Stats counts what a replay saw.
type Stats struct {
	Packets       int `json:"packets"`
	Candidates    int `json:"candidates"`
	ParseFailures int `json:"parse_failures"`
	Duplicates    int `json:"duplicates"`
}

// Replay decodes every device response in the capture read from r. Devices
// are returned in capture order, one per MAC, first response winning.
func Replay(r io.Reader, logger *zap.Logger) ([]protocol.DeviceRecord, Stats, error) {
	logger = logging.OrNop(logger)
	var stats Stats

	src, linkType, err := openSource(r)
	if err != nil {
		return nil, stats, err
	}
	logger.Debug("Opened capture", zap.Stringer("link_type", linkType))

	source := gopacket.NewPacketSource(src, linkType)
	source.DecodeOptions.Lazy = true
	source.DecodeOptions.NoCopy = true

	parser := protocol.NewParser(logger)
	devices := make([]protocol.DeviceRecord, 0)
	seen := make(map[string]struct{})

	for {
		packet, err := source.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return devices, stats, fmt.Errorf("read packet %d: %w", stats.Packets+1, err)
		}
		stats.Packets++

		payload, from, ok := deviceDatagram(packet)
		if !ok {
			continue
		}
		stats.Candidates++
		logging.RawBytes(logger, "Replaying datagram", payload, zap.String("from", from))

		rec, err := parser.Parse(payload, from)
		if err != nil {
			stats.ParseFailures++
			logger.Debug("Ignoring datagram", zap.String("from", from), zap.Error(err))
			continue
		}
		if _, dup := seen[rec.MACAddress]; dup {
			stats.Duplicates++
			continue
		}
		seen[rec.MACAddress] = struct{}{}
		devices = append(devices, rec)
	}

	logger.Info("Replay complete",
		zap.Int("packets", stats.Packets),
		zap.Int("candidates", stats.Candidates),
		zap.Int("devices", len(devices)),
	)
	return devices, stats, nil
}

// openSource sniffs the file format and returns a packet reader for it.
func openSource(r io.Reader) (gopacket.PacketDataSource, layers.LinkType, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, 0, fmt.Errorf("read capture header: %w", err)
	}

	if bytes.Equal(magic, ngMagic) {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, 0, fmt.Errorf("open pcapng: %w", err)
		}
		return ng, ng.LinkType(), nil
	}

	pr, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, 0, fmt.Errorf("open pcap: %w", err)
	}
	return pr, pr.LinkType(), nil
}

// deviceDatagram extracts the UDP payload and IPv4 source of a device to
// tool datagram.
func deviceDatagram(packet gopacket.Packet) ([]byte, string, bool) {
	ipLayer, ok := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	if !ok {
		return nil, "", false
	}
	udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if !ok {
		return nil, "", false
	}
	if udp.SrcPort != protocol.DestinationPort && udp.DstPort != protocol.SourcePort {
		return nil, "", false
	}
	return udp.Payload, ipLayer.SrcIP.String(), true
}
