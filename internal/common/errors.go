// Package common defines shared constants and sentinel errors used across
// the broker, the storage engine and the clients. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Client input failed syntax or length checks.
	ErrMalformedRequest = errors.New("malformed request")

	// Authorization errors.
	ErrCredentialMismatch   = errors.New("credential mismatch")
	ErrNoPendingTransaction = errors.New("no pending transaction")
	ErrCodeMismatch         = errors.New("validation code mismatch")
	ErrInvalidTransaction   = errors.New("invalid transaction")
	ErrTransactionMismatch  = errors.New("transaction does not authorize this operation")

	// Relay errors.
	ErrRelayUnavailable = errors.New("relay unavailable")
	ErrRelayRejected    = errors.New("relay rejected challenge")

	// Storage policy errors.
	ErrDuplicate     = errors.New("file already exists")
	ErrQuotaExceeded = errors.New("file quota exceeded")
	ErrEmpty         = errors.New("no files")

	// I/O failed mid-operation; unrecoverable for the current request.
	ErrTransportFailure = errors.New("transport failure")
)
