package registrar

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/netx"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBroker(t *testing.T, reply func(line string) string) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	go func() {
		buf := make([]byte, 512)
		for {
			n, addr, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			if out := reply(strings.TrimSuffix(string(buf[:n]), "\n")); out != "" {
				_, _ = pc.WriteTo([]byte(out), addr)
			}
		}
	}()
	return pc.LocalAddr().String()
}

func TestRegister(t *testing.T) {
	got := make(chan string, 1)
	addr := fakeBroker(t, func(line string) string {
		got <- line
		return "RRG OK\n"
	})

	c := New(addr, time.Second, logging.Discard())
	err := c.Register(context.Background(), "12345", "abcd1234", models.Endpoint{Host: "127.0.0.1", Port: "57046"})
	require.NoError(t, err)
	assert.Equal(t, "REG 12345 abcd1234 127.0.0.1 57046", <-got)
}

func TestRegister_Failures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  error
	}{
		{"nok", "RRG NOK\n", common.ErrCredentialMismatch},
		{"err", "ERR\n", protocol.ErrServerError},
		{"wrong reply", "RUN OK\n", protocol.ErrUnexpectedReply},
		{"odd status", "RRG MAYBE\n", protocol.ErrUnexpectedReply},
		{"silent", "", netx.ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := fakeBroker(t, func(string) string { return tt.reply })
			c := New(addr, 100*time.Millisecond, logging.Discard())
			err := c.Register(context.Background(), "12345", "abcd1234", models.Endpoint{Host: "127.0.0.1", Port: "1"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUnregister(t *testing.T) {
	addr := fakeBroker(t, func(line string) string {
		if line == "UNR 12345 abcd1234" {
			return "RUN OK\n"
		}
		return "RUN NOK\n"
	})
	c := New(addr, time.Second, logging.Discard())

	assert.NoError(t, c.Unregister(context.Background(), "12345", "abcd1234"))
	assert.ErrorIs(t, c.Unregister(context.Background(), "12345", "zzzz9999"), common.ErrCredentialMismatch)
}
