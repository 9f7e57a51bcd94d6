// Package discovery runs the Easy IP broadcast exchanges over UDP.
//
// A Session sends one search request to 255.255.255.255:10670 and collects
// responses on port 10669 (or an ephemeral port when 10669 is taken) until
// its timeout elapses. Each datagram goes through protocol.Parse; failures
// are logged and skipped. Devices are deduplicated by MAC, first response
// wins, and returned in the order they were first seen.
//
// # Usage Example
//
//	session := discovery.NewSession(discovery.WithLogger(logger))
//	devices, err := session.Discover(ctx, discovery.Options{
//	    Timeout: 3 * time.Second,
//	})
//	if err != nil {
//	    fmt.Println(discovery.GetTroubleshootingHint(err))
//	    return err
//	}
//	for _, d := range discovery.Sort(devices, discovery.SortByIP) {
//	    fmt.Println(d.IPAddress, d.MACAddress, d.ModelName)
//	}
//
// # Configuration
//
// Configure sends a single request addressed by MAC and waits for one
// acknowledgement. A timeout or an unexpected reply is reported as false
// with a nil error; only socket failures and invalid input are errors.
//
// # Lifecycle
//
// A run moves through Idle, SocketBound, Broadcasting, Listening and ends in
// Complete or Failed. WithObserver receives each transition. The socket is
// closed exactly once on every exit path.
//
// # Testing
//
// The transport is the Dialer/PacketConn pair. Tests substitute a scripted
// in-memory implementation with WithDialer.
package discovery
