// Package server exposes the broker over the line protocol: REG, UNR and
// VLD as UDP datagrams, LOG, REQ and AUT over TCP sessions, both on the
// same port number.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/netx"
	"golang.org/x/sync/errgroup"
)

// Broker is the service the server dispatches to.
type Broker interface {
	Register(ctx context.Context, uid, secret string, relay models.Endpoint) error
	Unregister(ctx context.Context, uid, secret string) error
	Login(ctx context.Context, uid, secret string) error
	RequestOperation(ctx context.Context, uid, rid string, op models.Operation, filename string) error
	ConfirmCode(ctx context.Context, uid, rid, code string) (string, error)
	ValidateTransaction(ctx context.Context, uid, tid string) (models.Grant, error)
}

type Server struct {
	address     string
	broker      Broker
	logger      logging.Logger
	idleTimeout time.Duration

	udp net.PacketConn
	tcp net.Listener

	wg sync.WaitGroup
}

func NewServer(address string, b Broker, idleTimeout time.Duration, l logging.Logger) *Server {
	return &Server{
		address:     address,
		broker:      b,
		idleTimeout: idleTimeout,
		logger:      l.With("module", "broker_server"),
	}
}

// Listen binds the TCP listener first and then UDP on the same port, so an
// address with port 0 still yields a single port number for both.
func (s *Server) Listen(ctx context.Context) error {
	var lc net.ListenConfig

	tcp, err := lc.Listen(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("listen tcp %s: %w", s.address, err)
	}

	host, _, err := netx.SplitHostPort(s.address)
	if err != nil {
		_ = tcp.Close()
		return err
	}
	port := tcp.Addr().(*net.TCPAddr).Port

	udp, err := lc.ListenPacket(ctx, "udp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		_ = tcp.Close()
		return fmt.Errorf("listen udp %s: %w", s.address, err)
	}

	s.tcp, s.udp = tcp, udp
	return nil
}

// Addr returns the bound address once Listen succeeded.
func (s *Server) Addr() string {
	return s.tcp.Addr().String()
}

// Serve runs both listeners until ctx is done, then waits for in-flight
// workers.
func (s *Server) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	netx.CloseOnDone(ctx, s.tcp)
	netx.CloseOnDone(ctx, s.udp)

	s.logger.Info(ctx, "Starting broker server", "address", s.Addr())

	g.Go(func() error { return s.serveUDP(ctx) })
	g.Go(func() error { return s.serveTCP(ctx) })

	err := g.Wait()
	s.wg.Wait()
	s.logger.Info(ctx, "Broker server stopped")
	return err
}

func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) serveUDP(ctx context.Context) error {
	buf := make([]byte, netx.MaxDatagram)
	for {
		n, addr, err := s.udp.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("udp read: %w", err)
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleDatagram(ctx, datagram, addr)
		}()
	}
}

func (s *Server) serveTCP(ctx context.Context) error {
	for {
		conn, err := s.tcp.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("tcp accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleSession(ctx, conn)
		}()
	}
}
