package server

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
	"github.com/google/uuid"
)

func (s *Server) handleDatagram(ctx context.Context, datagram []byte, addr net.Addr) {
	logger := s.logger.With("worker", uuid.NewString(), "peer", addr.String())

	reply := s.dispatchDatagram(ctx, string(datagram))
	logger.Debug(ctx, "datagram handled", "request", strings.TrimSpace(string(datagram)), "reply", strings.TrimSpace(reply))

	if _, err := s.udp.WriteTo([]byte(reply), addr); err != nil {
		logger.Warn(ctx, "udp reply failed", "error", err)
	}
}

func (s *Server) dispatchDatagram(ctx context.Context, datagram string) string {
	line, ok := strings.CutSuffix(datagram, "\n")
	if !ok || len(line) > protocol.MaxRequestLength {
		return protocol.Format(protocol.ReplyError)
	}
	tokens, err := protocol.Split(line)
	if err != nil {
		return protocol.Format(protocol.ReplyError)
	}

	switch cmd, args := tokens[0], tokens[1:]; cmd {
	case protocol.CmdRegister:
		return s.register(ctx, args)
	case protocol.CmdUnregister:
		return s.unregister(ctx, args)
	case protocol.CmdValidate:
		return s.validate(ctx, args)
	}
	return protocol.Format(protocol.ReplyError)
}

func (s *Server) register(ctx context.Context, args []string) string {
	req, err := protocol.ParseRegister(args)
	if err != nil {
		return protocol.Format(protocol.ReplyError)
	}

	if err := s.broker.Register(ctx, req.UID, req.Secret, req.Relay); err != nil {
		if !errors.Is(err, common.ErrCredentialMismatch) {
			s.logger.Error(ctx, "register failed", "uid", req.UID, "error", err)
		}
		return protocol.Format(protocol.ReplyRegister, protocol.StatusNOK)
	}
	return protocol.Format(protocol.ReplyRegister, protocol.StatusOK)
}

func (s *Server) unregister(ctx context.Context, args []string) string {
	req, err := protocol.ParseUnregister(args)
	if err != nil {
		return protocol.Format(protocol.ReplyError)
	}

	if err := s.broker.Unregister(ctx, req.UID, req.Secret); err != nil {
		return protocol.Format(protocol.ReplyUnregister, protocol.StatusNOK)
	}
	return protocol.Format(protocol.ReplyUnregister, protocol.StatusOK)
}

func (s *Server) validate(ctx context.Context, args []string) string {
	req, err := protocol.ParseValidate(args)
	if err != nil {
		return protocol.Format(protocol.ReplyError)
	}

	grant, err := s.broker.ValidateTransaction(ctx, req.UID, req.TID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) && !errors.Is(err, common.ErrInvalidTransaction) {
			s.logger.Error(ctx, "validate failed", "uid", req.UID, "error", err)
		}
		return protocol.ValidateReply{UID: req.UID, TID: req.TID}.Encode()
	}

	return protocol.ValidateReply{UID: req.UID, TID: req.TID, Valid: true, Grant: grant}.Encode()
}
