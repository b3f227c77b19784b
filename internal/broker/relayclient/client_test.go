package relayclient

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice answers every datagram with reply(line) unless it is empty.
func fakeDevice(t *testing.T, reply func(line string) string) models.Endpoint {
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

	_, port, err := net.SplitHostPort(pc.LocalAddr().String())
	require.NoError(t, err)
	return models.Endpoint{Host: "127.0.0.1", Port: port}
}

func challenge() protocol.ChallengeRequest {
	return protocol.ChallengeRequest{UID: "12345", Code: "4821", Operation: models.OpUpload, Filename: "a.txt"}
}

func TestChallenge_Acknowledged(t *testing.T) {
	got := make(chan string, 1)
	ep := fakeDevice(t, func(line string) string {
		got <- line
		return "RVC 12345 OK\n"
	})

	c := New(time.Second, logging.Discard())
	require.NoError(t, c.Challenge(context.Background(), ep, challenge()))
	assert.Equal(t, "VLC 12345 4821 U a.txt", <-got)
}

func TestChallenge_Failures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  error
	}{
		{"nok", "RVC 12345 NOK\n", common.ErrRelayRejected},
		{"err", "ERR\n", common.ErrRelayRejected},
		{"other uid", "RVC 54321 OK\n", common.ErrRelayRejected},
		{"garbage", "HELLO\n", common.ErrRelayRejected},
		{"silent", "", common.ErrRelayUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := fakeDevice(t, func(string) string { return tt.reply })
			c := New(100*time.Millisecond, logging.Discard())
			err := c.Challenge(context.Background(), ep, challenge())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
