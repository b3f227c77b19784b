// Package relayclient delivers validation codes to registered relay devices.
package relayclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/netx"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
)

// Client sends VLC datagrams and waits for the device's RVC acknowledgement.
type Client struct {
	timeout time.Duration
	logger  logging.Logger
}

func New(timeout time.Duration, logger logging.Logger) *Client {
	return &Client{timeout: timeout, logger: logger.With("module", "relayclient")}
}

// Challenge delivers req to the relay at endpoint. It returns
// common.ErrRelayUnavailable when no acknowledgement arrives in time and
// common.ErrRelayRejected when the device answers NOK, ERR or for another uid.
func (c *Client) Challenge(ctx context.Context, endpoint models.Endpoint, req protocol.ChallengeRequest) error {
	reply, err := netx.Exchange(ctx, endpoint.Address(), []byte(req.Encode()), c.timeout)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRelayUnavailable, err)
	}

	line := strings.TrimSuffix(string(reply), "\n")
	c.logger.Debug(ctx, "relay replied", "relay", endpoint.Address(), "reply", line)

	uid, status, err := protocol.ParseChallengeReply(line)
	if err != nil {
		if errors.Is(err, protocol.ErrServerError) {
			return fmt.Errorf("%w: relay replied ERR", common.ErrRelayRejected)
		}
		return fmt.Errorf("%w: %v", common.ErrRelayRejected, err)
	}
	if uid != req.UID {
		return fmt.Errorf("%w: acknowledgement for %s, expected %s", common.ErrRelayRejected, uid, req.UID)
	}
	if status != protocol.StatusOK {
		return fmt.Errorf("%w: relay replied %s", common.ErrRelayRejected, status)
	}
	return nil
}
