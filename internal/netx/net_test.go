package netx

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoServer(t *testing.T, reply func([]byte) []byte) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	go func() {
		buf := make([]byte, MaxDatagram)
		for {
			n, addr, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			if out := reply(buf[:n]); out != nil {
				_, _ = pc.WriteTo(out, addr)
			}
		}
	}()
	return pc.LocalAddr().String()
}

func TestExchange(t *testing.T) {
	addr := echoServer(t, func(b []byte) []byte {
		return append([]byte("ACK "), b...)
	})

	got, err := Exchange(context.Background(), addr, []byte("VLD 12345 1000\n"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ACK VLD 12345 1000\n", string(got))
}

func TestExchange_Timeout(t *testing.T) {
	addr := echoServer(t, func([]byte) []byte { return nil })

	start := time.Now()
	_, err := Exchange(context.Background(), addr, []byte("VLC\n"), 50*time.Millisecond)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestExchange_ContextCancelled(t *testing.T) {
	addr := echoServer(t, func([]byte) []byte { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Exchange(ctx, addr, []byte("VLC\n"), 5*time.Second)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestCloseOnDone(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	CloseOnDone(ctx, l)
	cancel()

	_, err = l.Accept()
	assert.Error(t, err)
}

func TestSplitHostPort(t *testing.T) {
	host, port, err := SplitHostPort("127.0.0.1:58046")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, "58046", port)

	_, _, err = SplitHostPort("nope")
	assert.Error(t, err)
}

func TestIdleConn(t *testing.T) {
	t.Run("trickle keeps the connection alive", func(t *testing.T) {
		server, client := net.Pipe()
		t.Cleanup(func() { _ = server.Close(); _ = client.Close() })
		c := IdleConn(server, 150*time.Millisecond)

		go func() {
			for _, b := range []byte("abcde") {
				time.Sleep(60 * time.Millisecond)
				_, _ = client.Write([]byte{b})
			}
		}()

		buf := make([]byte, 5)
		_, err := io.ReadFull(c, buf)
		require.NoError(t, err)
		assert.Equal(t, "abcde", string(buf))
	})

	t.Run("stall times out", func(t *testing.T) {
		server, client := net.Pipe()
		t.Cleanup(func() { _ = server.Close(); _ = client.Close() })
		c := IdleConn(server, 50*time.Millisecond)

		_, err := c.Read(make([]byte, 1))
		var ne net.Error
		require.True(t, errors.As(err, &ne), "got %v", err)
		assert.True(t, ne.Timeout())
	})

	t.Run("zero idle is a no-op", func(t *testing.T) {
		server, client := net.Pipe()
		t.Cleanup(func() { _ = server.Close(); _ = client.Close() })
		assert.Same(t, server, IdleConn(server, 0))
	})
}
