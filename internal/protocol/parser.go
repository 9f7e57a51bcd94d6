package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// TLVMap holds the TLV records of one response, keyed by tag.
// Later records with the same tag replace earlier ones.
type TLVMap map[uint16][]byte

// Has reports whether tag was present.
func (m TLVMap) Has(tag uint16) bool {
	_, ok := m[tag]
	return ok
}

// Parser decodes search responses. The zero value is usable and silent.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a parser that logs decoding detail at debug level.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Parse decodes a response with a silent parser.
func Parse(raw []byte, sourceIP string) (DeviceRecord, error) {
	return (&Parser{}).Parse(raw, sourceIP)
}

func (p *Parser) log() *zap.Logger {
	if p.logger == nil {
		return zap.NewNop()
	}
	return p.logger
}

// Parse decodes one datagram. sourceIP is the UDP source address and is
// used when the response carries no IP TLV.
//
// Only a short packet or a bad header is an error. Malformed TLV tails end
// the walk and leave the remaining fields at their defaults.
func (p *Parser) Parse(raw []byte, sourceIP string) (DeviceRecord, error) {
	log := p.log()

	if len(raw) < MinResponseSize {
		return DeviceRecord{}, &ParseError{Kind: KindTooShort, Length: len(raw)}
	}
	if binary.BigEndian.Uint16(raw[0:2]) != ProtocolMarker {
		return DeviceRecord{}, &ParseError{Kind: KindBadHeader, Length: len(raw), Header: append([]byte(nil), raw[0:2]...)}
	}

	rec := DeviceRecord{
		ResponseType: binary.BigEndian.Uint16(raw[ResponseTypeOffset : ResponseTypeOffset+2]),
		MACAddress:   FormatMAC(raw[ResponseMACOffset : ResponseMACOffset+6]),
		IPAddress:    sourceIP,
		SubnetMask:   DefaultSubnetMask,
		Gateway:      DefaultGateway,
		HTTPPort:     DefaultHTTPPort,
	}

	tlv := p.DecodeTLV(raw)

	rec.ModelName = tlvString(tlv, TagModelName, DefaultModelName)
	rec.DeviceName = tlvString(tlv, TagDeviceName, DefaultDeviceName)
	rec.FirmwareVersion = tlvString(tlv, TagFirmware, DefaultFirmware)
	rec.SerialNumber = tlvString(tlv, TagSerialNumber, DefaultSerial)

	rec.DeviceType = Classify(tlv, rec.ModelName)

	if v := tlv[TagDeviceTypeCode]; len(v) >= 1 {
		code := v[0]
		rec.RawDeviceTypeCode = &code
	}

	if v := tlv[TagNetworkMode]; len(v) >= 1 {
		rec.NetworkMode = NetworkMode{Value: v[0], Known: true}
	} else if len(raw) > NetworkModeOffset {
		rec.NetworkMode = NetworkMode{Value: raw[NetworkModeOffset], Known: true}
	}

	if v := tlv[TagIPAddress]; len(v) == 4 {
		rec.IPAddress = FormatIPv4(v)
	}
	if v := tlv[TagSubnetMask]; len(v) == 4 {
		rec.SubnetMask = FormatIPv4(v)
	}
	if v := tlv[TagGateway]; len(v) == 4 {
		rec.Gateway = FormatIPv4(v)
	}
	if v := tlv[TagHTTPPort]; len(v) == 2 {
		rec.HTTPPort = binary.BigEndian.Uint16(v)
	}

	log.Debug("Parsed device response",
		zap.String("mac", rec.MACAddress),
		zap.Stringer("device_type", rec.DeviceType),
		zap.String("model", rec.ModelName),
		zap.String("ip", rec.IPAddress),
		zap.Stringer("network_mode", rec.NetworkMode),
		zap.Uint16("response_type", rec.ResponseType),
	)

	return rec, nil
}

// DecodeTLV walks the TLV area starting at TLVOffset.
// The walk stops at the end marker, when fewer than 4 bytes remain, or when
// a declared length runs past the buffer.
func (p *Parser) DecodeTLV(raw []byte) TLVMap {
	log := p.log()
	tlv := make(TLVMap)

	offset := TLVOffset
	for offset+4 <= len(raw) {
		tag := binary.BigEndian.Uint16(raw[offset : offset+2])
		if tag == EndMarker {
			break
		}
		length := int(binary.BigEndian.Uint16(raw[offset+2 : offset+4]))
		if offset+4+length > len(raw) {
			log.Debug("TLV runs past end of packet",
				zap.Uint16("tag", tag),
				zap.Int("length", length),
				zap.Int("remaining", len(raw)-offset-4),
			)
			break
		}

		value := raw[offset+4 : offset+4+length]
		tlv[tag] = value
		log.Debug("TLV",
			zap.String("tag", fmt.Sprintf("0x%02x", tag)),
			zap.Int("length", length),
			zap.Binary("value", value),
		)

		offset += 4 + length
	}

	return tlv
}

// DecodeTLV walks the TLV area with a silent parser.
func DecodeTLV(raw []byte) TLVMap {
	return (&Parser{}).DecodeTLV(raw)
}

// tlvString decodes a NUL-padded string TLV. Invalid UTF-8 is dropped and
// an empty result falls back to def.
func tlvString(tlv TLVMap, tag uint16, def string) string {
	v, ok := tlv[tag]
	if !ok {
		return def
	}
	v = bytes.TrimRight(v, "\x00")
	s := strings.TrimSpace(strings.ToValidUTF8(string(v), ""))
	if s == "" {
		return def
	}
	return s
}
