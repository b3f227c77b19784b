// Package models holds the domain records shared by the broker, the storage
// engine and the clients.
package models

import "fmt"

// Operation is the kind of file operation a transaction authorizes. Its
// value is the one-letter code used on the wire.
type Operation string

const (
	OpList           Operation = "L"
	OpRetrieve       Operation = "R"
	OpUpload         Operation = "U"
	OpDelete         Operation = "D"
	OpRemoveIdentity Operation = "X"
)

// ParseOperation maps a wire code to an Operation.
func ParseOperation(code string) (Operation, error) {
	switch op := Operation(code); op {
	case OpList, OpRetrieve, OpUpload, OpDelete, OpRemoveIdentity:
		return op, nil
	}
	return "", fmt.Errorf("unknown operation %q", code)
}

// NeedsFilename reports whether the operation targets a single file.
func (o Operation) NeedsFilename() bool {
	return o == OpRetrieve || o == OpUpload || o == OpDelete
}

// String returns the human-readable name shown to operators.
func (o Operation) String() string {
	switch o {
	case OpList:
		return "list"
	case OpRetrieve:
		return "retrieve"
	case OpUpload:
		return "upload"
	case OpDelete:
		return "delete"
	case OpRemoveIdentity:
		return "remove"
	}
	return "unknown"
}
