package discovery

import (
	"context"
	"net"
	"sync"
	"time"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// fakeRead is one scripted ReadFrom result.
type fakeRead struct {
	data  []byte
	from  string
	err   error
	panic bool
}

// fakeConn replays scripted reads, then times out.
type fakeConn struct {
	mu       sync.Mutex
	reads    []fakeRead
	writes   [][]byte
	dests    []net.Addr
	writeErr error
	closes   int
	local    *net.UDPAddr
	deadline time.Time
}

func (c *fakeConn) ReadFrom(p []byte) (int, net.Addr, error) {
	c.mu.Lock()
	if len(c.reads) == 0 {
		c.mu.Unlock()
		return 0, nil, &net.OpError{Op: "read", Net: "udp", Err: timeoutError{}}
	}
	r := c.reads[0]
	c.reads = c.reads[1:]
	c.mu.Unlock()

	if r.panic {
		panic("scripted receive panic")
	}
	if r.err != nil {
		return 0, nil, r.err
	}
	n := copy(p, r.data)
	return n, &net.UDPAddr{IP: net.ParseIP(r.from), Port: 10670}, nil
}

func (c *fakeConn) WriteTo(p []byte, addr net.Addr) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.writes = append(c.writes, append([]byte(nil), p...))
	c.dests = append(c.dests, addr)
	return len(p), nil
}

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) LocalAddr() net.Addr {
	if c.local == nil {
		return &net.UDPAddr{IP: net.IPv4zero, Port: 10669}
	}
	return c.local
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	return nil
}

// fakeDialer hands out conns in order. errs[i], when set, fails call i.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	errs  []error
	addrs []string
}

func (d *fakeDialer) ListenPacket(ctx context.Context, address string) (PacketConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	call := len(d.addrs)
	d.addrs = append(d.addrs, address)
	if call < len(d.errs) && d.errs[call] != nil {
		return nil, d.errs[call]
	}
	if len(d.conns) == 0 {
		return &fakeConn{}, nil
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

func (d *fakeDialer) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.addrs)
}
