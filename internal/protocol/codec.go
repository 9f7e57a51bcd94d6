package protocol

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// BuildSearchRequest builds the discovery broadcast.
// The source MAC and IP are embedded so devices can address their reply.
func BuildSearchRequest(sourceMAC net.HardwareAddr, sourceIP net.IP) ([]byte, error) {
	if len(sourceMAC) != 6 {
		return nil, &AddressError{Field: "source mac", Value: sourceMAC.String(), Cause: "must be 6 octets"}
	}
	ip4 := sourceIP.To4()
	if ip4 == nil {
		return nil, &AddressError{Field: "source ip", Value: sourceIP.String(), Cause: "not an IPv4 address"}
	}

	pkt := make([]byte, 0, SearchRequestSize)
	pkt = binary.BigEndian.AppendUint16(pkt, ProtocolMarker)
	pkt = binary.BigEndian.AppendUint16(pkt, MsgSearchRequest)
	pkt = append(pkt, searchCommand...)
	pkt = append(pkt, sourceMAC...)
	pkt = append(pkt, ip4...)
	pkt = append(pkt, searchFlags...)
	pkt = append(pkt, searchPadding...)
	pkt = append(pkt, searchCategory...)
	for _, code := range searchModelTypes {
		pkt = binary.BigEndian.AppendUint16(pkt, code)
	}
	pkt = append(pkt, searchTrailer...)

	return pkt, nil
}

// BuildConfigureRequest builds the packet that sets a device's network
// settings. The device identified by mac applies it; others ignore it.
func BuildConfigureRequest(mac, ip, subnet, gateway string, port uint16) ([]byte, error) {
	macBytes, err := ParseMAC(mac)
	if err != nil {
		return nil, err
	}
	ipBytes, err := ParseIPv4("ip", ip)
	if err != nil {
		return nil, err
	}
	subnetBytes, err := ParseIPv4("subnet", subnet)
	if err != nil {
		return nil, err
	}
	gatewayBytes, err := ParseIPv4("gateway", gateway)
	if err != nil {
		return nil, err
	}

	pkt := make([]byte, 0, ConfigureRequestSize)
	pkt = binary.BigEndian.AppendUint16(pkt, ProtocolMarker)
	pkt = binary.BigEndian.AppendUint16(pkt, MsgConfigRequest)
	pkt = binary.BigEndian.AppendUint16(pkt, CmdConfigure)
	pkt = append(pkt, macBytes...)
	pkt = AppendTLV(pkt, TagIPAddress, ipBytes)
	pkt = AppendTLV(pkt, TagSubnetMask, subnetBytes)
	pkt = AppendTLV(pkt, TagGateway, gatewayBytes)
	pkt = AppendTLV(pkt, TagHTTPPort, binary.BigEndian.AppendUint16(nil, port))
	pkt = binary.BigEndian.AppendUint16(pkt, EndMarker)

	return pkt, nil
}

// AppendTLV appends one tag/length/value record.
func AppendTLV(dst []byte, tag uint16, value []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, tag)
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(value)))
	return append(dst, value...)
}

// ParseMAC parses a colon- or dash-separated MAC into 6 bytes.
func ParseMAC(s string) ([]byte, error) {
	parts := strings.Split(strings.ReplaceAll(strings.TrimSpace(s), "-", ":"), ":")
	if len(parts) != 6 {
		return nil, &AddressError{Field: "mac", Value: s, Cause: fmt.Sprintf("expected 6 octets, got %d", len(parts))}
	}
	out := make([]byte, 6)
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 {
			return nil, &AddressError{Field: "mac", Value: s, Cause: fmt.Sprintf("octet %d %q is not 1-2 hex digits", i+1, p)}
		}
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return nil, &AddressError{Field: "mac", Value: s, Cause: fmt.Sprintf("octet %d %q is not hex", i+1, p)}
		}
		out[i] = byte(v)
	}
	return out, nil
}

// ParseIPv4 parses a dotted quad into 4 bytes. Each octet is one to three
// ASCII digits in [0,255]; signs and whitespace are rejected.
func ParseIPv4(field, s string) ([]byte, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return nil, &AddressError{Field: field, Value: s, Cause: fmt.Sprintf("expected 4 octets, got %d", len(parts))}
	}
	out := make([]byte, 4)
	for i, p := range parts {
		if !isOctetDigits(p) {
			return nil, &AddressError{Field: field, Value: s, Cause: fmt.Sprintf("octet %d %q is not a number", i+1, p)}
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, &AddressError{Field: field, Value: s, Cause: fmt.Sprintf("octet %d %q is not a number", i+1, p)}
		}
		if v < 0 || v > 255 {
			return nil, &AddressError{Field: field, Value: s, Cause: fmt.Sprintf("octet %d out of range: %d", i+1, v)}
		}
		out[i] = byte(v)
	}
	return out, nil
}

func isOctetDigits(p string) bool {
	if len(p) == 0 || len(p) > 3 {
		return false
	}
	for i := 0; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return false
		}
	}
	return true
}

// FormatMAC renders 6 bytes as lowercase colon-hex.
func FormatMAC(b []byte) string {
	return net.HardwareAddr(b).String()
}

// FormatIPv4 renders 4 bytes as a dotted quad.
func FormatIPv4(b []byte) string {
	return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3])
}
