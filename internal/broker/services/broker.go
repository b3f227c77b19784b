// Package services implements the authorization broker: identity
// registration, login, operation requests with out-of-band code delivery,
// code confirmation and transaction validation for the storage engine.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/broker/repositories/identities"
	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/cryptox"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
)

// Relay delivers a validation code to a relay device and waits for its
// acknowledgement.
type Relay interface {
	Challenge(ctx context.Context, endpoint models.Endpoint, req protocol.ChallengeRequest) error
}

// BrokerService holds no state of its own; everything lives in the
// identities repository.
type BrokerService struct {
	repo         identities.Repository
	relay        Relay
	relayTimeout time.Duration
	logger       logging.Logger

	newCode func() (string, error)
	now     func() time.Time
}

func NewBrokerService(repo identities.Repository, relay Relay, relayTimeout time.Duration, logger logging.Logger) *BrokerService {
	return &BrokerService{
		repo:         repo,
		relay:        relay,
		relayTimeout: relayTimeout,
		logger:       logger.With("module", "broker"),
		newCode:      common.RandomCode,
		now:          time.Now,
	}
}

func malformed(what, value string) error {
	return fmt.Errorf("%w: bad %s %q", common.ErrMalformedRequest, what, value)
}

func checkCredentials(uid, secret string) error {
	if !protocol.IsUID(uid) {
		return malformed("uid", uid)
	}
	if !protocol.IsSecret(secret) {
		return malformed("secret", "********")
	}
	return nil
}

// Register creates the identity on first use; later registrations with the
// same secret only move the relay endpoint.
func (s *BrokerService) Register(ctx context.Context, uid, secret string, relay models.Endpoint) error {
	if err := checkCredentials(uid, secret); err != nil {
		return err
	}
	if !protocol.IsIPv4(relay.Host) {
		return malformed("relay ip", relay.Host)
	}
	if !protocol.IsPort(relay.Port) {
		return malformed("relay port", relay.Port)
	}

	return s.repo.Update(ctx, uid, func(current *models.Record) (*models.Record, error) {
		if current == nil {
			salt, verifier := cryptox.NewCredential(secret)
			s.logger.Info(ctx, "identity registered", "uid", uid, "relay", relay.Address())
			return &models.Record{Identity: models.Identity{
				UID:       uid,
				Salt:      salt,
				Verifier:  verifier,
				Relay:     relay,
				CreatedAt: s.now().UTC(),
			}}, nil
		}

		if !cryptox.Verify(secret, current.Identity.Salt, current.Identity.Verifier) {
			return nil, common.ErrCredentialMismatch
		}
		current.Identity.Relay = relay
		s.logger.Info(ctx, "relay endpoint updated", "uid", uid, "relay", relay.Address())
		return current, nil
	})
}

// Unregister detaches the relay and drops any pending transaction. The
// credential and the user's files stay.
func (s *BrokerService) Unregister(ctx context.Context, uid, secret string) error {
	if err := checkCredentials(uid, secret); err != nil {
		return err
	}

	return s.repo.Update(ctx, uid, func(current *models.Record) (*models.Record, error) {
		if current == nil {
			return nil, common.ErrorNotFound
		}
		if !cryptox.Verify(secret, current.Identity.Salt, current.Identity.Verifier) {
			return nil, common.ErrCredentialMismatch
		}
		current.Identity.Relay = models.Endpoint{}
		current.Transaction = nil
		s.logger.Info(ctx, "relay unregistered", "uid", uid)
		return current, nil
	})
}

// Login checks the secret of an existing identity.
func (s *BrokerService) Login(ctx context.Context, uid, secret string) error {
	if err := checkCredentials(uid, secret); err != nil {
		return err
	}

	rec, err := s.repo.Get(ctx, uid)
	if err != nil {
		return err
	}
	if !cryptox.Verify(secret, rec.Identity.Salt, rec.Identity.Verifier) {
		return common.ErrCredentialMismatch
	}
	return nil
}

// RequestOperation issues a new transaction for uid, replacing any previous
// one, and delivers its code to the registered relay. It returns once the
// relay acknowledged or the relay timeout elapsed; it never waits for the
// code to be keyed back.
func (s *BrokerService) RequestOperation(ctx context.Context, uid, rid string, op models.Operation, filename string) error {
	if !protocol.IsUID(uid) {
		return malformed("uid", uid)
	}
	if !protocol.IsFourDigits(rid) {
		return malformed("rid", rid)
	}
	if _, err := models.ParseOperation(string(op)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformedRequest, err)
	}
	if err := protocol.CheckTarget(op, filename); err != nil {
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	var relay models.Endpoint
	err = s.repo.Update(ctx, uid, func(current *models.Record) (*models.Record, error) {
		if current == nil {
			return nil, common.ErrorNotFound
		}
		if current.Identity.Relay.IsZero() {
			return nil, fmt.Errorf("%w: no relay registered", common.ErrRelayUnavailable)
		}
		relay = current.Identity.Relay
		current.Transaction = &models.Transaction{
			RequestID: rid,
			Code:      code,
			Operation: op,
			Filename:  filename,
			State:     models.StateIssued,
			IssuedAt:  s.now().UTC(),
		}
		return current, nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "transaction issued", "uid", uid, "rid", rid, "op", op.String(), "file", filename)
	return s.dispatch(ctx, relay, protocol.ChallengeRequest{UID: uid, Code: code, Operation: op, Filename: filename})
}

func (s *BrokerService) dispatch(ctx context.Context, relay models.Endpoint, req protocol.ChallengeRequest) error {
	ctx, cancel := context.WithTimeout(ctx, s.relayTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.relay.Challenge(ctx, relay, req)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Warn(ctx, "code delivery failed", "uid", req.UID, "relay", relay.Address(), "error", err)
			if !errors.Is(err, common.ErrRelayRejected) && !errors.Is(err, common.ErrRelayUnavailable) {
				err = fmt.Errorf("%w: %v", common.ErrRelayUnavailable, err)
			}
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Warn(ctx, "code delivery timed out", "uid", req.UID, "relay", relay.Address())
		return fmt.Errorf("%w: %v", common.ErrRelayUnavailable, ctx.Err())
	}
}

// ConfirmCode turns the issued transaction of uid into a confirmed one and
// returns its fresh tid. A wrong rid or code leaves the transaction issued.
func (s *BrokerService) ConfirmCode(ctx context.Context, uid, rid, code string) (string, error) {
	if !protocol.IsUID(uid) {
		return "", malformed("uid", uid)
	}
	if !protocol.IsFourDigits(rid) {
		return "", malformed("rid", rid)
	}
	if !protocol.IsFourDigits(code) {
		return "", malformed("code", code)
	}

	tid, err := s.newCode()
	if err != nil {
		return "", fmt.Errorf("generate tid: %w", err)
	}

	err = s.repo.Update(ctx, uid, func(current *models.Record) (*models.Record, error) {
		if current == nil {
			return nil, common.ErrorNotFound
		}
		t := current.Transaction
		if t == nil || t.State != models.StateIssued {
			return nil, common.ErrNoPendingTransaction
		}
		ridOK := t.RequestID == rid
		codeOK := subtle.ConstantTimeCompare([]byte(t.Code), []byte(code)) == 1
		if !ridOK || !codeOK {
			return nil, common.ErrCodeMismatch
		}
		t.TID = tid
		t.State = models.StateConfirmed
		return current, nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "transaction confirmed", "uid", uid, "tid", tid)
	return tid, nil
}

// ValidateTransaction reports what the confirmed transaction tid of uid
// authorizes. The record is read afresh on every call.
func (s *BrokerService) ValidateTransaction(ctx context.Context, uid, tid string) (models.Grant, error) {
	if !protocol.IsUID(uid) {
		return models.Grant{}, malformed("uid", uid)
	}
	if !protocol.IsFourDigits(tid) {
		return models.Grant{}, malformed("tid", tid)
	}

	rec, err := s.repo.Get(ctx, uid)
	if err != nil {
		return models.Grant{}, err
	}
	t := rec.Transaction
	if t == nil || t.State != models.StateConfirmed || t.TID != tid {
		return models.Grant{}, common.ErrInvalidTransaction
	}
	return models.Grant{Operation: t.Operation, Filename: t.Filename}, nil
}
