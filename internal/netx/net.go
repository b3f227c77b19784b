// Package netx holds small network helpers shared by the services and the
// clients: one-shot UDP exchanges and listener lifetimes bound to a context.
package netx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// MaxDatagram bounds any datagram read by an exchange or a UDP server.
const MaxDatagram = 2048

// ErrTimeout is returned when no reply arrives in time.
var ErrTimeout = errors.New("no reply before timeout")

// Exchange sends payload as a single datagram to addr and waits for one
// reply, bounded by timeout and by ctx.
func Exchange(ctx context.Context, addr string, payload []byte, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := CloseOnDone(ctx, conn)
	defer stop()

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("send to %s: %w", addr, err)
	}

	buf := make([]byte, MaxDatagram)
	n, err := conn.Read(buf)
	if err != nil {
		var ne net.Error
		if (errors.As(err, &ne) && ne.Timeout()) || ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", addr, ErrTimeout)
		}
		return nil, fmt.Errorf("receive from %s: %w", addr, err)
	}
	return buf[:n], nil
}

// CloseOnDone closes c once ctx is done. The returned stop function
// releases the watcher without closing c.
func CloseOnDone(ctx context.Context, c io.Closer) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// SplitHostPort is net.SplitHostPort with the address echoed in the error.
func SplitHostPort(addr string) (host, port string, err error) {
	host, port, err = net.SplitHostPort(addr)
	if err != nil {
		return "", "", fmt.Errorf("bad address %q: %w", addr, err)
	}
	return host, port, nil
}

type idleConn struct {
	net.Conn
	idle time.Duration
}

// IdleConn pushes the read deadline out by idle before every Read and the
// write deadline before every Write, so a transfer only times out when the
// peer stalls. A non-positive idle returns c unchanged.
func IdleConn(c net.Conn, idle time.Duration) net.Conn {
	if idle <= 0 {
		return c
	}
	return &idleConn{Conn: c, idle: idle}
}

func (c *idleConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.idle)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *idleConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.idle)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}
