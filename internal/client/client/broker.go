package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/netx"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
)

// BrokerSession is one TCP session with the broker. It is safe for
// concurrent use; exchanges are serialized.
type BrokerSession struct {
	addr    string
	timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

// NewBrokerSession returns a session that dials addr on first use. timeout
// bounds each exchange and must cover the broker's relay timeout.
func NewBrokerSession(addr string, timeout time.Duration) *BrokerSession {
	return &BrokerSession{addr: addr, timeout: timeout}
}

func (s *BrokerSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reset()
}

func (s *BrokerSession) reset() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn, s.r = nil, nil
	return err
}

// exchange sends one request line and returns the reply line. Any failure
// resets the session.
func (s *BrokerSession) exchange(ctx context.Context, request string, dial bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		if !dial {
			return "", ErrSessionClosed
		}
		var d net.Dialer
		dctx, cancel := context.WithTimeout(ctx, s.timeout)
		conn, err := d.DialContext(dctx, "tcp", s.addr)
		cancel()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		s.conn, s.r = conn, bufio.NewReader(conn)
	}

	stop := netx.CloseOnDone(ctx, s.conn)
	defer stop()
	_ = s.conn.SetDeadline(time.Now().Add(s.timeout))

	if _, err := io.WriteString(s.conn, request); err != nil {
		_ = s.reset()
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	line, err := protocol.ReadLine(s.r, protocol.MaxReplyLength)
	if err != nil {
		_ = s.reset()
		if errors.Is(err, protocol.ErrLineTooLong) {
			return "", fmt.Errorf("%w: %v", protocol.ErrUnexpectedReply, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if line == protocol.ReplyError {
		// the broker ends the session after ERR
		_ = s.reset()
	}
	return line, nil
}

// Login sends LOG and returns the RLO status. It opens a new session when
// none is open.
func (s *BrokerSession) Login(ctx context.Context, req protocol.LoginRequest) (string, error) {
	line, err := s.exchange(ctx, req.Encode(), true)
	if err != nil {
		return "", err
	}
	return protocol.ParseStatus(line, protocol.ReplyLogin)
}

// Request sends REQ and returns the RRQ status. RRQ ERR ends the session.
func (s *BrokerSession) Request(ctx context.Context, req protocol.OperationRequest) (string, error) {
	line, err := s.exchange(ctx, req.Encode(), false)
	if err != nil {
		return "", err
	}
	status, err := protocol.ParseStatus(line, protocol.ReplyRequest)
	if err == nil && status == protocol.StatusError {
		s.mu.Lock()
		_ = s.reset()
		s.mu.Unlock()
	}
	return status, err
}

// Authenticate sends AUT and returns the tid from RAU, protocol.AuthFailedTID
// when the code was not accepted.
func (s *BrokerSession) Authenticate(ctx context.Context, req protocol.AuthenticateRequest) (string, error) {
	line, err := s.exchange(ctx, req.Encode(), false)
	if err != nil {
		return "", err
	}
	tid, err := protocol.ParseStatus(line, protocol.ReplyAuthenticate)
	if err != nil {
		return "", err
	}
	if tid != protocol.AuthFailedTID && !protocol.IsFourDigits(tid) {
		return "", fmt.Errorf("%w: tid %q", protocol.ErrUnexpectedReply, tid)
	}
	return tid, nil
}
