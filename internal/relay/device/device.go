// Package device is the relay's listening side: it receives VLC challenges
// from the broker, shows the validation code to the operator and
// acknowledges with RVC.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/netx"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
)

type Device struct {
	address string
	logger  logging.Logger

	mu  sync.RWMutex
	uid string

	outMu sync.Mutex
	out   io.Writer

	conn net.PacketConn
}

// NewDevice returns a device that will listen on address and print codes
// to out.
func NewDevice(address string, out io.Writer, l logging.Logger) *Device {
	return &Device{address: address, out: out, logger: l.With("module", "device")}
}

// SetUID sets the identity this device acknowledges challenges for.
func (d *Device) SetUID(uid string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uid = uid
}

func (d *Device) UID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.uid
}

func (d *Device) Listen(ctx context.Context) error {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp", d.address)
	if err != nil {
		return fmt.Errorf("listen udp %s: %w", d.address, err)
	}
	d.conn = conn
	return nil
}

// Port returns the bound port once Listen succeeded.
func (d *Device) Port() string {
	return fmt.Sprint(d.conn.LocalAddr().(*net.UDPAddr).Port)
}

// Serve answers challenges until ctx is done. Datagrams are handled in
// arrival order so codes are printed in the order they were sent.
func (d *Device) Serve(ctx context.Context) error {
	stop := netx.CloseOnDone(ctx, d.conn)
	defer stop()

	buf := make([]byte, netx.MaxDatagram)
	for {
		n, addr, err := d.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("udp read: %w", err)
		}

		reply, notice := d.handle(string(buf[:n]))
		d.logger.Debug(ctx, "challenge handled", "peer", addr.String(),
			"request", strings.TrimSpace(string(buf[:n])), "reply", strings.TrimSpace(reply))

		if notice != "" {
			d.show(notice)
		}
		if _, err := d.conn.WriteTo([]byte(reply), addr); err != nil {
			d.logger.Warn(ctx, "udp reply failed", "error", err)
		}
	}
}

func (d *Device) Run(ctx context.Context) error {
	if err := d.Listen(ctx); err != nil {
		return err
	}
	return d.Serve(ctx)
}

func (d *Device) show(notice string) {
	d.outMu.Lock()
	defer d.outMu.Unlock()
	fmt.Fprintln(d.out, notice)
}

// handle returns the reply to a datagram and, for an acknowledged
// challenge, the line to show the operator.
func (d *Device) handle(datagram string) (reply, notice string) {
	line, ok := strings.CutSuffix(datagram, "\n")
	if !ok || len(line) > protocol.MaxRequestLength {
		return protocol.Format(protocol.ReplyError), ""
	}
	tokens, err := protocol.Split(line)
	if err != nil || tokens[0] != protocol.CmdChallenge {
		return protocol.Format(protocol.ReplyError), ""
	}
	req, err := protocol.ParseChallenge(tokens[1:])
	if err != nil {
		return protocol.Format(protocol.ReplyError), ""
	}

	if uid := d.UID(); uid == "" || req.UID != uid {
		return protocol.Format(protocol.ReplyChallenge, req.UID, protocol.StatusNOK), ""
	}
	return protocol.Format(protocol.ReplyChallenge, req.UID, protocol.StatusOK), Notice(req.Code, req.Operation, req.Filename)
}

// Notice formats the operator line for a code: "VC: code | operation" with
// ": fname" appended for single-file operations.
func Notice(code string, op models.Operation, filename string) string {
	if filename == "" {
		return fmt.Sprintf("VC: %s | %s", code, op)
	}
	return fmt.Sprintf("VC: %s | %s: %s", code, op, filename)
}
