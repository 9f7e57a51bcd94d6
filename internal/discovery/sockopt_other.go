//go:build !unix && !windows

package discovery

import (
	"errors"
	"syscall"
)

var errAddrInUse = errors.New("address already in use")

func setBroadcastOptions(network, address string, c syscall.RawConn) error {
	return nil
}
