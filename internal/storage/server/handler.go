package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/netx"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
	"github.com/google/uuid"
)

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	logger := s.logger.With("worker", uuid.NewString(), "peer", conn.RemoteAddr().String())
	conn = netx.IdleConn(conn, s.idleTimeout)

	r := bufio.NewReader(conn)

	cmd, delim, err := protocol.ReadToken(r, protocol.MaxTokenLength)
	if err != nil {
		if errors.Is(err, protocol.ErrLineTooLong) {
			_, _ = io.WriteString(conn, protocol.Format(protocol.ReplyError))
		}
		return
	}

	op, ok := protocol.StorageOperation(cmd)
	if !ok {
		logger.Debug(ctx, "unknown command", "command", cmd)
		_, _ = io.WriteString(conn, protocol.Format(protocol.ReplyError))
		return
	}
	reply := protocol.StorageReply(op)

	var args []string
	switch {
	case op == models.OpUpload && delim == ' ':
		args, err = protocol.ReadFields(r, 4)
	case delim == ' ':
		var rest string
		rest, err = protocol.ReadLine(r, protocol.MaxRequestLength)
		if err == nil {
			args, err = protocol.Split(rest)
		}
	}
	if err != nil && !errors.Is(err, common.ErrMalformedRequest) && !errors.Is(err, protocol.ErrLineTooLong) {
		logger.Debug(ctx, "request read failed", "error", err)
		return
	}

	req, err := protocol.ParseStorageRequest(cmd, args)
	if err != nil {
		logger.Debug(ctx, "malformed request", "command", cmd, "error", err)
		_, _ = io.WriteString(conn, protocol.Format(reply, protocol.StatusError))
		return
	}

	logger = logger.With("uid", req.UID, "tid", req.TID)
	logger.Debug(ctx, "request received", "operation", req.Operation.String(), "file", req.Filename)

	switch req.Operation {
	case models.OpList:
		s.list(ctx, conn, logger, req)
	case models.OpRetrieve:
		s.retrieve(ctx, conn, logger, req)
	case models.OpUpload:
		s.upload(ctx, conn, r, logger, req)
	case models.OpDelete:
		err := s.engine.Delete(ctx, req.UID, req.TID, req.Filename)
		s.reply(ctx, conn, logger, reply, statusOf(ctx, logger, err, protocol.StatusEOF))
	case models.OpRemoveIdentity:
		err := s.engine.RemoveIdentity(ctx, req.UID, req.TID)
		s.reply(ctx, conn, logger, reply, statusOf(ctx, logger, err, protocol.StatusNOK))
	}
}

// statusOf translates an engine error into a reply status. notFound is the
// status the command uses for a missing file or identity.
func statusOf(ctx context.Context, logger logging.Logger, err error, notFound string) string {
	switch {
	case err == nil:
		return protocol.StatusOK
	case errors.Is(err, common.ErrInvalidTransaction), errors.Is(err, common.ErrTransactionMismatch):
		return protocol.StatusInvalid
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrEmpty):
		return notFound
	case errors.Is(err, common.ErrDuplicate):
		return protocol.StatusDup
	case errors.Is(err, common.ErrQuotaExceeded):
		return protocol.StatusFull
	}
	logger.Error(ctx, "storage operation failed", "error", err)
	return protocol.StatusNOK
}

func (s *Server) reply(ctx context.Context, conn net.Conn, logger logging.Logger, cmd, status string) {
	if _, err := io.WriteString(conn, protocol.Format(cmd, status)); err != nil {
		logger.Warn(ctx, "reply failed", "error", err)
	}
}

func (s *Server) list(ctx context.Context, conn net.Conn, logger logging.Logger, req protocol.StorageRequest) {
	files, err := s.engine.List(ctx, req.UID, req.TID)
	if err != nil {
		s.reply(ctx, conn, logger, protocol.ReplyList, statusOf(ctx, logger, err, protocol.StatusEOF))
		return
	}
	if _, err := io.WriteString(conn, protocol.EncodeList(files)); err != nil {
		logger.Warn(ctx, "reply failed", "error", err)
	}
}

func (s *Server) retrieve(ctx context.Context, conn net.Conn, logger logging.Logger, req protocol.StorageRequest) {
	rc, size, err := s.engine.Retrieve(ctx, req.UID, req.TID, req.Filename)
	if err != nil {
		s.reply(ctx, conn, logger, protocol.ReplyRetrieve, statusOf(ctx, logger, err, protocol.StatusEOF))
		return
	}
	defer rc.Close()

	header := protocol.ReplyRetrieve + " " + protocol.StatusOK
	if err := protocol.WriteFrame(conn, header, size, rc); err != nil {
		logger.Warn(ctx, "retrieve aborted", "file", req.Filename, "error", err)
		return
	}
	logger.Info(ctx, "file sent", "file", req.Filename, "size", size)
}

// upload hands the declared payload to the engine. Whatever the engine
// leaves unread is drained so the client can read the reply; a short
// payload tears the connection down without one.
func (s *Server) upload(ctx context.Context, conn net.Conn, r *bufio.Reader, logger logging.Logger, req protocol.StorageRequest) {
	payload := &io.LimitedReader{R: r, N: req.Size}

	err := s.engine.Upload(ctx, req.UID, req.TID, req.Filename, payload, req.Size)
	if errors.Is(err, common.ErrTransportFailure) {
		logger.Warn(ctx, "upload aborted", "file", req.Filename, "error", err)
		return
	}

	if _, derr := io.Copy(io.Discard, payload); derr != nil || payload.N > 0 {
		logger.Warn(ctx, "upload payload truncated", "file", req.Filename, "missing", payload.N)
		return
	}
	// trailing '\n'
	if _, derr := r.ReadByte(); derr != nil && !errors.Is(derr, io.EOF) {
		logger.Warn(ctx, "upload frame not terminated", "error", derr)
		return
	}

	s.reply(ctx, conn, logger, protocol.ReplyUpload, statusOf(ctx, logger, err, protocol.StatusNOK))
}
