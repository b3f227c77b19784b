// Package registrar registers and unregisters a relay device with the
// broker over UDP.
package registrar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/netx"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
)

type Client struct {
	brokerAddr string
	timeout    time.Duration
	logger     logging.Logger
}

func New(brokerAddr string, timeout time.Duration, logger logging.Logger) *Client {
	return &Client{brokerAddr: brokerAddr, timeout: timeout, logger: logger.With("module", "registrar")}
}

// Register announces relay as the device of uid. A NOK reply is
// common.ErrCredentialMismatch; ERR is protocol.ErrServerError; no reply
// is netx.ErrTimeout.
func (c *Client) Register(ctx context.Context, uid, secret string, relay models.Endpoint) error {
	req := protocol.RegisterRequest{UID: uid, Secret: secret, Relay: relay}
	return c.exchange(ctx, req.Encode(), protocol.ReplyRegister)
}

// Unregister detaches the device of uid. A NOK reply, for an unknown uid or
// a wrong secret, is common.ErrCredentialMismatch.
func (c *Client) Unregister(ctx context.Context, uid, secret string) error {
	req := protocol.UnregisterRequest{UID: uid, Secret: secret}
	return c.exchange(ctx, req.Encode(), protocol.ReplyUnregister)
}

func (c *Client) exchange(ctx context.Context, request, replyCmd string) error {
	reply, err := netx.Exchange(ctx, c.brokerAddr, []byte(request), c.timeout)
	if err != nil {
		return err
	}

	line := strings.TrimSuffix(string(reply), "\n")
	c.logger.Debug(ctx, "broker replied", "reply", line)

	status, err := protocol.ParseStatus(line, replyCmd)
	if err != nil {
		return err
	}
	switch status {
	case protocol.StatusOK:
		return nil
	case protocol.StatusNOK:
		return common.ErrCredentialMismatch
	}
	return fmt.Errorf("%w: %q", protocol.ErrUnexpectedReply, line)
}
