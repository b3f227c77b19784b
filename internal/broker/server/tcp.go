package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
	"github.com/google/uuid"
)

// session is the per-connection state of a user client.
type session struct {
	conn   net.Conn
	r      *bufio.Reader
	logger logging.Logger
	uid    string
}

func (s *Server) handleSession(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	sess := &session{
		conn:   conn,
		r:      bufio.NewReader(conn),
		logger: s.logger.With("worker", uuid.NewString(), "peer", conn.RemoteAddr().String()),
	}
	sess.logger.Debug(ctx, "session opened")

	for {
		if s.idleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}

		line, err := protocol.ReadLine(sess.r, protocol.MaxRequestLength)
		if err != nil {
			if errors.Is(err, protocol.ErrLineTooLong) {
				_, _ = io.WriteString(conn, protocol.Format(protocol.ReplyError))
			}
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				sess.logger.Debug(ctx, "session read ended", "error", err)
			}
			return
		}

		reply, keep := s.dispatchSession(ctx, sess, line)
		sess.logger.Debug(ctx, "request handled", "request", line, "reply", reply[:len(reply)-1])

		if _, err := io.WriteString(conn, reply); err != nil {
			sess.logger.Warn(ctx, "tcp reply failed", "error", err)
			return
		}
		if !keep {
			return
		}
	}
}

// dispatchSession handles one request line and reports whether the session
// may continue.
func (s *Server) dispatchSession(ctx context.Context, sess *session, line string) (string, bool) {
	tokens, err := protocol.Split(line)
	if err != nil {
		return protocol.Format(protocol.ReplyError), false
	}

	switch cmd, args := tokens[0], tokens[1:]; cmd {
	case protocol.CmdLogin:
		return s.login(ctx, sess, args)
	case protocol.CmdRequest:
		return s.request(ctx, sess, args)
	case protocol.CmdAuthenticate:
		return s.authenticate(ctx, sess, args)
	}
	return protocol.Format(protocol.ReplyError), false
}

func (s *Server) login(ctx context.Context, sess *session, args []string) (string, bool) {
	req, err := protocol.ParseLogin(args)
	if err != nil {
		return protocol.Format(protocol.ReplyError), false
	}

	if err := s.broker.Login(ctx, req.UID, req.Secret); err != nil {
		sess.uid = ""
		if !errors.Is(err, common.ErrorNotFound) && !errors.Is(err, common.ErrCredentialMismatch) {
			sess.logger.Error(ctx, "login failed", "uid", req.UID, "error", err)
		}
		return protocol.Format(protocol.ReplyLogin, protocol.StatusNOK), true
	}

	sess.uid = req.UID
	sess.logger.Info(ctx, "logged in", "uid", req.UID)
	return protocol.Format(protocol.ReplyLogin, protocol.StatusOK), true
}

func (s *Server) request(ctx context.Context, sess *session, args []string) (string, bool) {
	status := func(st string) string { return protocol.Format(protocol.ReplyRequest, st) }

	req, err := protocol.ParseOperationRequest(args)
	switch {
	case errors.Is(err, protocol.ErrUnknownOperation):
		return status(protocol.StatusBadOperation), true
	case err != nil:
		return status(protocol.StatusError), false
	}

	if sess.uid == "" {
		return status(protocol.StatusNotLoggedIn), true
	}
	if req.UID != sess.uid {
		return status(protocol.StatusUnknownUser), true
	}

	err = s.broker.RequestOperation(ctx, req.UID, req.RID, req.Operation, req.Filename)
	switch {
	case err == nil:
		return status(protocol.StatusOK), true
	case errors.Is(err, common.ErrorNotFound):
		return status(protocol.StatusUnknownUser), true
	case errors.Is(err, common.ErrRelayUnavailable), errors.Is(err, common.ErrRelayRejected):
		return status(protocol.StatusRelayDown), true
	case errors.Is(err, common.ErrMalformedRequest):
		return status(protocol.StatusError), false
	}
	sess.logger.Error(ctx, "request failed", "uid", req.UID, "error", err)
	return status(protocol.StatusError), true
}

func (s *Server) authenticate(ctx context.Context, sess *session, args []string) (string, bool) {
	req, err := protocol.ParseAuthenticate(args)
	if err != nil {
		return protocol.Format(protocol.ReplyError), false
	}

	failed := protocol.Format(protocol.ReplyAuthenticate, protocol.AuthFailedTID)
	if sess.uid == "" || req.UID != sess.uid {
		return failed, true
	}

	tid, err := s.broker.ConfirmCode(ctx, req.UID, req.RID, req.Code)
	if err != nil {
		if !errors.Is(err, common.ErrCodeMismatch) && !errors.Is(err, common.ErrNoPendingTransaction) && !errors.Is(err, common.ErrorNotFound) {
			sess.logger.Error(ctx, "authentication failed", "uid", req.UID, "error", err)
		}
		return failed, true
	}
	return protocol.Format(protocol.ReplyAuthenticate, tid), true
}
