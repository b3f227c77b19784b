package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/netx"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
)

// StorageClient issues storage requests, one connection each.
type StorageClient struct {
	addr        string
	dialTimeout time.Duration
}

func NewStorageClient(addr string, dialTimeout time.Duration) *StorageClient {
	return &StorageClient{addr: addr, dialTimeout: dialTimeout}
}

// do dials the storage engine and runs fn on the connection, closing it
// afterwards or when ctx is cancelled.
func (c *StorageClient) do(ctx context.Context, fn func(conn net.Conn, r *bufio.Reader) error) error {
	var d net.Dialer
	dctx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	conn, err := d.DialContext(dctx, "tcp", c.addr)
	cancel()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer conn.Close()

	stop := netx.CloseOnDone(ctx, conn)
	defer stop()

	return fn(conn, bufio.NewReader(conn))
}

func transportError(err error) error {
	if errors.Is(err, protocol.ErrServerError) || errors.Is(err, protocol.ErrUnexpectedReply) ||
		errors.Is(err, common.ErrMalformedRequest) || errors.Is(err, common.ErrTransportFailure) ||
		errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// simple sends a one-line request and decodes a "CMD STATUS" reply.
func (c *StorageClient) simple(ctx context.Context, req protocol.StorageRequest) (string, error) {
	var status string
	err := c.do(ctx, func(conn net.Conn, r *bufio.Reader) error {
		if _, err := io.WriteString(conn, req.Encode()); err != nil {
			return err
		}
		line, err := protocol.ReadLine(r, protocol.MaxReplyLength)
		if err != nil {
			return err
		}
		status, err = protocol.ParseStatus(line, protocol.StorageReply(req.Operation))
		return err
	})
	if err != nil {
		return "", transportError(err)
	}
	return status, nil
}

// List returns the stored files and StatusOK, or nil and the failure status.
func (c *StorageClient) List(ctx context.Context, uid, tid string) ([]models.StoredFile, string, error) {
	req := protocol.StorageRequest{Operation: models.OpList, UID: uid, TID: tid}

	var (
		files  []models.StoredFile
		status string
	)
	err := c.do(ctx, func(conn net.Conn, r *bufio.Reader) error {
		if _, err := io.WriteString(conn, req.Encode()); err != nil {
			return err
		}
		line, err := protocol.ReadLine(r, protocol.MaxReplyLength)
		if err != nil {
			return err
		}
		files, status, err = protocol.ParseListReply(line)
		return err
	})
	if err != nil {
		return nil, "", transportError(err)
	}
	return files, status, nil
}

// Retrieve copies the content of name to w. On a failure status w is left
// untouched.
func (c *StorageClient) Retrieve(ctx context.Context, uid, tid, name string, w io.Writer) (string, int64, error) {
	req := protocol.StorageRequest{Operation: models.OpRetrieve, UID: uid, TID: tid, Filename: name}

	var (
		status string
		size   int64
	)
	err := c.do(ctx, func(conn net.Conn, r *bufio.Reader) error {
		if _, err := io.WriteString(conn, req.Encode()); err != nil {
			return err
		}
		var err error
		status, size, err = protocol.ReadFramedReply(r, protocol.ReplyRetrieve, w)
		return err
	})
	if err != nil {
		return "", 0, transportError(err)
	}
	return status, size, nil
}

// Upload streams exactly size bytes from src as name.
func (c *StorageClient) Upload(ctx context.Context, uid, tid, name string, src io.Reader, size int64) (string, error) {
	req := protocol.StorageRequest{Operation: models.OpUpload, UID: uid, TID: tid, Filename: name, Size: size}

	var status string
	err := c.do(ctx, func(conn net.Conn, r *bufio.Reader) error {
		if err := protocol.WriteFrame(conn, req.Encode(), size, src); err != nil {
			return err
		}
		line, err := protocol.ReadLine(r, protocol.MaxReplyLength)
		if err != nil {
			return err
		}
		status, err = protocol.ParseStatus(line, protocol.ReplyUpload)
		return err
	})
	if err != nil {
		return "", transportError(err)
	}
	return status, nil
}

func (c *StorageClient) Delete(ctx context.Context, uid, tid, name string) (string, error) {
	return c.simple(ctx, protocol.StorageRequest{Operation: models.OpDelete, UID: uid, TID: tid, Filename: name})
}

// Remove asks the storage engine to delete every file of uid.
func (c *StorageClient) Remove(ctx context.Context, uid, tid string) (string, error) {
	return c.simple(ctx, protocol.StorageRequest{Operation: models.OpRemoveIdentity, UID: uid, TID: tid})
}
