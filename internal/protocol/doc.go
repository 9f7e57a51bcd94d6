// Package protocol implements the i-PRO Easy IP Setup wire format.
//
// The protocol is an undocumented UDP broadcast handshake used by i-PRO
// (formerly Panasonic) cameras and recorders. Everything here was derived
// from packet captures of the vendor's setup tool, so the constant blocks in
// tables.go are reproduced byte for byte rather than computed.
//
// # Packet Overview
//
// All multi-byte fields are big-endian. Every packet starts with the
// protocol marker 0x0001 followed by a 2-byte message code:
//   - 0x002a: search request (tool -> broadcast:10670)
//   - 0x0021: configure request (tool -> broadcast:10670)
//   - 0x0022: configure acknowledgement (device -> tool)
//
// Search responses carry the responder MAC at offset 6 and a TLV area from
// offset 0x30: tag(2) length(2) value(length), terminated by 0xffff.
//
// # Decoding
//
// Parse only fails for packets shorter than 20 bytes or with a bad marker.
// Real devices send inconsistent trailing data, so a truncated or malformed
// TLV tail ends the walk and leaves the remaining fields at their defaults:
//
//	rec, err := protocol.Parse(payload, srcIP)
//	if err != nil {
//	    // protocol.IsParseError(err) == true
//	}
//	fmt.Println(rec.DeviceType, rec.MACAddress, rec.IPAddress)
//
// # Building
//
//	pkt, err := protocol.BuildConfigureRequest("a0:29:19:3e:ab:91",
//	    "192.168.1.50", "255.255.255.0", "192.168.1.1", 80)
//
// Malformed addresses fail with an error matching ErrInvalidAddress before
// any bytes are produced.
//
// # Classification
//
// The device class is a heuristic: a channel-count TLV (0xc0) or an NX/WJ
// model prefix marks a recorder. Tag 0xa6 is kept in the record for display
// only.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package protocol
