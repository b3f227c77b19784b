// Package server exposes the storage engine over TCP. Each connection
// carries exactly one request and its reply.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/netx"
)

// Engine is the set of storage operations the server dispatches to.
type Engine interface {
	List(ctx context.Context, uid, tid string) ([]models.StoredFile, error)
	Retrieve(ctx context.Context, uid, tid, name string) (io.ReadCloser, int64, error)
	Upload(ctx context.Context, uid, tid, name string, r io.Reader, size int64) error
	Delete(ctx context.Context, uid, tid, name string) error
	RemoveIdentity(ctx context.Context, uid, tid string) error
}

type Server struct {
	address     string
	engine      Engine
	idleTimeout time.Duration
	logger      logging.Logger

	listener net.Listener
	wg       sync.WaitGroup
}

func NewServer(address string, e Engine, idleTimeout time.Duration, l logging.Logger) *Server {
	return &Server{
		address:     address,
		engine:      e,
		idleTimeout: idleTimeout,
		logger:      l.With("module", "storage_server"),
	}
}

func (s *Server) Listen(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("listen tcp %s: %w", s.address, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address once Listen succeeded.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve accepts connections until ctx is done, then waits for in-flight
// transfers.
func (s *Server) Serve(ctx context.Context) error {
	stop := netx.CloseOnDone(ctx, s.listener)
	defer stop()

	s.logger.Info(ctx, "Starting storage server", "address", s.Addr())
	defer s.logger.Info(ctx, "Storage server stopped")

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			s.wg.Wait()
			return fmt.Errorf("tcp accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}
	return s.Serve(ctx)
}
