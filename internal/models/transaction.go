package models

import "time"

// TransactionState tracks where a transaction is in its lifecycle.
type TransactionState string

const (
	// StateIssued means a code was generated and sent to the relay.
	StateIssued TransactionState = "issued"
	// StateConfirmed means the code was keyed back and a tid assigned.
	StateConfirmed TransactionState = "confirmed"
)

// Transaction is one authorized (or pending) operation of an identity.
type Transaction struct {
	RequestID string           `json:"request_id"`
	Code      string           `json:"code"`
	TID       string           `json:"tid,omitempty"`
	Operation Operation        `json:"operation"`
	Filename  string           `json:"filename,omitempty"`
	State     TransactionState `json:"state"`
	IssuedAt  time.Time        `json:"issued_at"`
}

// Grant is what a successful validation returns to the storage engine.
type Grant struct {
	Operation Operation
	Filename  string
}

// Permits reports whether the grant authorizes op on filename.
func (g Grant) Permits(op Operation, filename string) bool {
	if g.Operation != op {
		return false
	}
	if op.NeedsFilename() {
		return g.Filename == filename
	}
	return true
}
