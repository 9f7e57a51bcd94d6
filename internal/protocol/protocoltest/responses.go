// Package protocoltest builds synthetic device responses for tests.
package protocoltest

import (
	"encoding/binary"

	"github.com/muurk/easyip/internal/protocol"
)

// TLV is one record appended to a synthetic response.
type TLV struct {
	Tag   uint16
	Value []byte
}

// String returns a TLV carrying s.
func String(tag uint16, s string) TLV {
	return TLV{Tag: tag, Value: []byte(s)}
}

// IPv4 returns a TLV carrying a dotted quad. It panics on bad input.
func IPv4(tag uint16, s string) TLV {
	b, err := protocol.ParseIPv4("test", s)
	if err != nil {
		panic(err)
	}
	return TLV{Tag: tag, Value: b}
}

// Port returns an HTTP port TLV.
func Port(port uint16) TLV {
	return TLV{Tag: protocol.TagHTTPPort, Value: binary.BigEndian.AppendUint16(nil, port)}
}

// Response builds a search response for mac with the given TLVs and the end
// marker. The header is zero-filled up to the TLV area.
func Response(mac string, tlvs ...TLV) []byte {
	macBytes, err := protocol.ParseMAC(mac)
	if err != nil {
		panic(err)
	}
	pkt := make([]byte, protocol.TLVOffset)
	binary.BigEndian.PutUint16(pkt[0:2], protocol.ProtocolMarker)
	binary.BigEndian.PutUint16(pkt[2:4], protocol.MsgSearchResponse)
	copy(pkt[protocol.ResponseMACOffset:], macBytes)
	for _, t := range tlvs {
		pkt = protocol.AppendTLV(pkt, t.Tag, t.Value)
	}
	return binary.BigEndian.AppendUint16(pkt, protocol.EndMarker)
}

// Camera builds a typical camera response.
func Camera(mac, ip, model, serial string) []byte {
	return Response(mac,
		TLV{Tag: protocol.TagNetworkMode, Value: []byte{2}},
		IPv4(protocol.TagIPAddress, ip),
		IPv4(protocol.TagSubnetMask, "255.255.255.0"),
		IPv4(protocol.TagGateway, "192.168.1.1"),
		Port(80),
		String(protocol.TagDeviceName, "Camera "+serial),
		String(protocol.TagModelName, model),
		String(protocol.TagFirmware, "2.10"),
		String(protocol.TagSerialNumber, serial),
	)
}

// Recorder builds a typical recorder response with a channel-count TLV.
func Recorder(mac, ip, model, serial string) []byte {
	return Response(mac,
		TLV{Tag: protocol.TagNetworkMode, Value: []byte{2}},
		IPv4(protocol.TagIPAddress, ip),
		Port(80),
		String(protocol.TagDeviceName, "Recorder "+serial),
		String(protocol.TagModelName, model),
		String(protocol.TagSerialNumber, serial),
		TLV{Tag: protocol.TagChannels, Value: []byte{0, 32}},
	)
}

// Ack builds a configuration acknowledgement.
func Ack() []byte {
	pkt := make([]byte, 8)
	binary.BigEndian.PutUint16(pkt[0:2], protocol.ProtocolMarker)
	binary.BigEndian.PutUint16(pkt[2:4], protocol.MsgConfigResponse)
	return pkt
}
