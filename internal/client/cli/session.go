package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
)

// Login handles "login uid [password]". Without a password on the command
// line it is read from the terminal without echo.
func (a *App) Login(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		printlnFn("Usage: login <uid> [password]")
		return common.ErrMalformedRequest
	}

	uid := args[0]
	if !protocol.IsUID(uid) {
		printlnFn("Error: UID must be 5 characters long and consist only of numbers. Try again!")
		return common.ErrMalformedRequest
	}

	var secret string
	if len(args) == 2 {
		secret = args[1]
	} else {
		pw, err := a.getPassword()
		if err != nil {
			printlnFn("Error: could not read password:", err)
			return err
		}
		secret = pw
	}
	if !protocol.IsSecret(secret) {
		printlnFn("Error: Password must be 8 characters long and consist only of alphanumeric characters. Try again!")
		return common.ErrMalformedRequest
	}

	status, err := a.broker.Login(ctx, protocol.LoginRequest{UID: uid, Secret: secret})
	if err != nil {
		a.brokerFailed(ctx, protocol.CmdLogin, err)
		return err
	}

	a.logout()
	a.uid = ""
	if status == protocol.StatusOK {
		a.uid = uid
		a.loggedIn = true
	}
	printlnFn(replyMessage(protocol.ReplyLogin, status))
	return nil
}

// Request handles "req op [fname]". A fresh request id is drawn for every
// request; an accepted request invalidates the previous transaction.
func (a *App) Request(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		printlnFn("Usage: req <L|R|U|D|X> [filename]")
		return common.ErrMalformedRequest
	}
	if !a.loggedIn {
		printlnFn(replyMessage(protocol.ReplyRequest, protocol.StatusNotLoggedIn))
		return common.ErrCredentialMismatch
	}

	op, err := models.ParseOperation(strings.ToUpper(args[0]))
	if err != nil {
		printlnFn("Error: Operation must be one of L, R, U, D, X.")
		return common.ErrMalformedRequest
	}
	var fname string
	if len(args) == 2 {
		fname = args[1]
	}
	if err := protocol.CheckTarget(op, fname); err != nil {
		if op.NeedsFilename() {
			printlnFn("Error: File name must be up to 20 characters of [A-Za-z0-9_-] followed by a 3-letter extension.")
		} else {
			printlnFn("Error: Operation", op.String(), "takes no file name.")
		}
		return err
	}

	rid, err := common.RandomCode()
	if err != nil {
		printlnFn("Error:", err)
		return err
	}

	status, err := a.broker.Request(ctx, protocol.OperationRequest{UID: a.uid, RID: rid, Operation: op, Filename: fname})
	if err != nil {
		a.brokerFailed(ctx, protocol.CmdRequest, err)
		return err
	}

	switch status {
	case protocol.StatusOK:
		a.rid, a.tid = rid, ""
	case protocol.StatusNotLoggedIn, protocol.StatusError:
		a.logout()
	}
	printlnFn(replyMessage(protocol.ReplyRequest, status))
	return nil
}

// Validate handles "val code", exchanging the relay code for a tid.
func (a *App) Validate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		printlnFn("Usage: val <code>")
		return common.ErrMalformedRequest
	}
	if !protocol.IsFourDigits(args[0]) {
		printlnFn("Error: Validation code must be 4 digits. Try again!")
		return common.ErrMalformedRequest
	}
	if !a.loggedIn || a.rid == "" {
		printlnFn("Error: No pending request. Use req first.")
		return common.ErrNoPendingTransaction
	}

	tid, err := a.broker.Authenticate(ctx, protocol.AuthenticateRequest{UID: a.uid, RID: a.rid, Code: args[0]})
	if err != nil {
		a.brokerFailed(ctx, protocol.CmdAuthenticate, err)
		return err
	}

	if tid == protocol.AuthFailedTID {
		printlnFn("Error: Authentication failed. Try again!")
		return nil
	}
	a.tid = tid
	printlnFn("Authenticated! (TID = " + tid + ")")
	return nil
}
