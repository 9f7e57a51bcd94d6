package discovery

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of a session failure
type ErrorType int

const (
	// ErrTypeSocket indicates the UDP socket could not be created or bound
	ErrTypeSocket ErrorType = iota
	// ErrTypeSend indicates the broadcast could not be sent
	ErrTypeSend
	// ErrTypeInterface indicates the local interface could not be resolved
	ErrTypeInterface
	// ErrTypePermission indicates the OS refused broadcast or bind
	ErrTypePermission
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeSocket:
		return "Socket Error"
	case ErrTypeSend:
		return "Send Error"
	case ErrTypeInterface:
		return "Interface Error"
	case ErrTypePermission:
		return "Permission Denied"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Op names the socket operation behind an Error.
type Op string

const (
	OpBind Op = "bind"
	OpSend Op = "send"
)

// Error is returned when a session cannot run at all. Timeouts and bad
// datagrams are never reported this way.
type Error struct {
	Type    ErrorType // Category of error
	Op      Op        // Operation that failed, when known
	Message string    // Human-readable error message
	Address string    // Bind or destination address (for context)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// newSocketError classifies a bind or socket creation failure.
func newSocketError(address string, err error) *Error {
	if isPermission(err) {
		return &Error{Type: ErrTypePermission, Op: OpBind, Message: "not permitted to open broadcast socket", Address: address, Err: err}
	}
	return &Error{Type: ErrTypeSocket, Op: OpBind, Message: "failed to open UDP socket on " + address, Address: address, Err: err}
}

// newSendError classifies a failed broadcast write.
func newSendError(address string, err error) *Error {
	if isPermission(err) {
		return &Error{Type: ErrTypePermission, Message: "broadcast to " + address + " not permitted", Address: address, Err: err}
	}
	return &Error{Type: ErrTypeSend, Op: OpSend, Message: "failed to send to " + address, Address: address, Err: err}
}

func isPermission(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM)
}

// IsSocketError checks if err is a socket creation or bind failure,
// including one the OS refused.
func IsSocketError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrTypeSocket || (e.Type == ErrTypePermission && e.Op != OpSend)
	}
	return false
}

// IsSendError checks if err is a broadcast send failure, including one the
// OS refused.
func IsSendError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrTypeSend || (e.Type == ErrTypePermission && e.Op == OpSend)
	}
	return false
}

// IsPermissionError checks if the OS refused the operation
func IsPermissionError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrTypePermission
	}
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred. Run 'easyip diag' to check the network."
	}

	switch e.Type {
	case ErrTypePermission:
		return strings.Join([]string{
			"The operating system refused the broadcast socket.",
			"Troubleshooting:",
			"  • Allow UDP ports 10669-10670 through the host firewall",
			"  • On Windows, allow easyip on private networks when prompted",
			"  • Some corporate networks block broadcasts entirely",
		}, "\n")

	case ErrTypeSocket:
		return strings.Join([]string{
			"Could not open a UDP socket.",
			"Troubleshooting:",
			"  • Check that the --interface address belongs to this machine",
			"  • Close other setup tools that may hold port 10669",
			"  • Run 'easyip diag' to test broadcast capability",
		}, "\n")

	case ErrTypeSend:
		return strings.Join([]string{
			"The search broadcast could not be sent.",
			"Troubleshooting:",
			"  • Verify a network interface is up and has an IPv4 address",
			"  • Try binding to a specific interface with --interface",
			"  • Devices must be on the same subnet as this machine",
		}, "\n")

	case ErrTypeInterface:
		return strings.Join([]string{
			"The local network interface could not be determined.",
			"Troubleshooting:",
			"  • Run 'easyip diag' to list available interfaces",
			"  • Pass an interface address explicitly with --interface",
		}, "\n")

	default:
		return "Run 'easyip diag' for network diagnostics."
	}
}

// GetShortErrorMessage returns a one-line message suitable for status bars.
func GetShortErrorMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Type {
	case ErrTypePermission:
		return "Broadcast not permitted"
	case ErrTypeSocket:
		return "Cannot open UDP socket"
	case ErrTypeSend:
		return "Broadcast send failed"
	case ErrTypeInterface:
		return "No usable interface"
	default:
		return e.Message
	}
}
