package protocol

// Protocol marker and message codes.
// Values captured from the vendor setup tool; big-endian on the wire.
const (
	ProtocolMarker uint16 = 0x0001

	MsgSearchRequest   uint16 = 0x002a // Search broadcast sent by the tool
	MsgSearchResponse  uint16 = 0x0012 // Not checked, responses vary
	MsgConfigRequest   uint16 = 0x0021
	MsgConfigResponse  uint16 = 0x0022 // Configuration acknowledgement
	CmdConfigure       uint16 = 0x000e
	EndMarker          uint16 = 0xffff
	searchCommandBlock        = 0x0d
)

// UDP ports used by the protocol.
const (
	SourcePort      = 10669 // 0x29ad, the tool binds here when it can
	DestinationPort = 10670 // 0x29ae, devices listen here
	BufferSize      = 4096
)

// Packet layout constants.
const (
	MinResponseSize    = 20
	ResponseTypeOffset = 2
	ResponseMACOffset  = 6
	TLVOffset          = 0x30
	// NetworkModeOffset is a positional fallback used only when tag 0x00 is
	// absent. Seen in captures; not known to be intentional.
	NetworkModeOffset = 0x32

	// RecorderFlagOffset must hold 0x02 or recorders ignore the search.
	RecorderFlagOffset = 35
	RecorderFlagValue  = 0x02

	SearchRequestSize    = 94
	ConfigureRequestSize = 44
)

// TLV tags observed in search and configure packets.
const (
	TagNetworkMode    uint16 = 0x00
	TagIPAddress      uint16 = 0x20
	TagSubnetMask     uint16 = 0x21
	TagGateway        uint16 = 0x22
	TagHTTPPort       uint16 = 0x25
	TagDeviceTypeCode uint16 = 0xa6 // Same value on cameras and recorders
	TagDeviceName     uint16 = 0xa7
	TagModelName      uint16 = 0xa8
	TagFirmware       uint16 = 0xa9
	TagChannels       uint16 = 0xc0 // Recorders only
	TagCapacity       uint16 = 0xc1 // Recorders only, not decoded
	TagSerialNumber   uint16 = 0xd1
)

// Field defaults applied when a TLV is absent.
const (
	DefaultDeviceName = "Device"
	DefaultModelName  = "Unknown"
	DefaultFirmware   = "Unknown"
	DefaultSerial     = "Unknown"
	DefaultSubnetMask = "255.255.255.0"
	DefaultGateway    = "0.0.0.0"
	DefaultHTTPPort   = 80
)

// RecorderModelPrefixes lists model-name prefixes of the recorder series.
var RecorderModelPrefixes = []string{"NX", "WJ"}

// searchCommand follows the marker and message code.
var searchCommand = []byte{0x00, searchCommandBlock, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// searchFlags follows the source MAC and IP.
var searchFlags = []byte{0x00, 0x00, 0x20, 0x11, 0x1e, 0x11, 0x23, 0x1f, 0x1e, 0x19, 0x13}

// searchPadding starts at offset 33. Its third byte lands on
// RecorderFlagOffset.
var searchPadding = []byte{
	0x00, 0x00, RecorderFlagValue, 0x01, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// searchCategory precedes the model-type table.
var searchCategory = []byte{0xff, 0xf0}

// searchModelTypes enumerates the model-type codes the tool asks about.
// The list ends with the 0xffff sentinel.
var searchModelTypes = []uint16{
	0x0026, 0x0020, 0x0021, 0x0022, 0x0023, 0x0025, 0x0028,
	0x0040, 0x0041, 0x0042, 0x0044, 0x00a5, 0x00a6, 0x00a7,
	0x00a8, 0x00ad, 0x00b3, 0x00b4, 0x00b7, 0x00b8, EndMarker,
}

// searchTrailer is required for recorders to answer.
var searchTrailer = []byte{0x11, 0x70}

// networkModeNames maps the network mode byte to display names.
var networkModeNames = map[byte]string{
	0: "DHCP",
	2: "Static",
	4: "Auto (AutoIP)",
	5: "Auto Advanced",
}

// DiagProbe is a small broadcast used by diagnostics to check that the
// host can send to the device port. Devices do not answer it.
var DiagProbe = []byte{0x01, 0x00, 0x00, 0x11, 0x00, 0x04, 0x00, 0x00, 0x00, 0x00}
