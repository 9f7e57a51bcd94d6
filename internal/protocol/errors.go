package protocol

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	ErrTooShort       = errors.New("packet too short")
	ErrBadHeader      = errors.New("bad protocol header")
	ErrInvalidAddress = errors.New("invalid address")
)

// ParseErrorKind categorises why a datagram was rejected.
type ParseErrorKind int

const (
	// KindTooShort means the datagram is shorter than MinResponseSize.
	KindTooShort ParseErrorKind = iota
	// KindBadHeader means the first two bytes are not the protocol marker.
	KindBadHeader
)

// String returns a human-readable name for the kind
func (k ParseErrorKind) String() string {
	switch k {
	case KindTooShort:
		return "TooShort"
	case KindBadHeader:
		return "BadHeader"
	default:
		return fmt.Sprintf("ParseErrorKind(%d)", k)
	}
}

// ParseError is returned by Parse when a datagram cannot be decoded.
type ParseError struct {
	Kind   ParseErrorKind
	Length int    // Datagram length
	Header []byte // First two bytes, when available
}

// Error implements the error interface
func (e *ParseError) Error() string {
	switch e.Kind {
	case KindTooShort:
		return fmt.Sprintf("packet too short: %d bytes (minimum %d)", e.Length, MinResponseSize)
	case KindBadHeader:
		return fmt.Sprintf("invalid header: expected 00 01, got % x", e.Header)
	default:
		return fmt.Sprintf("parse error (%s)", e.Kind)
	}
}

// Is maps the kind onto the package sentinels.
func (e *ParseError) Is(target error) bool {
	switch e.Kind {
	case KindTooShort:
		return target == ErrTooShort
	case KindBadHeader:
		return target == ErrBadHeader
	}
	return false
}

// AddressError reports a MAC or IPv4 value that cannot be encoded.
type AddressError struct {
	Field string // "mac", "ip", "subnet", "gateway", ...
	Value string
	Cause string
}

// Error implements the error interface
func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid %s address %q: %s", e.Field, e.Value, e.Cause)
}

// Unwrap lets callers match ErrInvalidAddress.
func (e *AddressError) Unwrap() error {
	return ErrInvalidAddress
}

// IsParseError reports whether err is a datagram decoding failure.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsAddressError reports whether err is an input validation failure.
func IsAddressError(err error) bool {
	return errors.Is(err, ErrInvalidAddress)
}
