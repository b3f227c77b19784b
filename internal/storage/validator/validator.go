// Package validator asks the broker whether a transaction id authorizes an
// operation, using the VLD/CNF datagram exchange.
package validator

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
	return &Client{brokerAddr: brokerAddr, timeout: timeout, logger: logger.With("module", "validator")}
}

// Validate returns the grant of (uid, tid). Any failure, including a
// broker that does not answer in time, is common.ErrInvalidTransaction.
func (c *Client) Validate(ctx context.Context, uid, tid string) (models.Grant, error) {
	req := protocol.ValidateRequest{UID: uid, TID: tid}

	reply, err := netx.Exchange(ctx, c.brokerAddr, []byte(req.Encode()), c.timeout)
	if err != nil {
		c.logger.Warn(ctx, "broker unreachable", "broker", c.brokerAddr, "error", err)
		return models.Grant{}, fmt.Errorf("%w: %v", common.ErrInvalidTransaction, err)
	}

	line := strings.TrimSuffix(string(reply), "\n")
	c.logger.Debug(ctx, "broker replied", "reply", line)

	res, err := protocol.ParseValidateReply(line)
	if err != nil {
		return models.Grant{}, fmt.Errorf("%w: %v", common.ErrInvalidTransaction, err)
	}
	if res.UID != uid || res.TID != tid {
		return models.Grant{}, fmt.Errorf("%w: reply for %s/%s", common.ErrInvalidTransaction, res.UID, res.TID)
	}
	if !res.Valid {
		return models.Grant{}, common.ErrInvalidTransaction
	}
	return res.Grant, nil
}
