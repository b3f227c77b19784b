// Package protocol implements the line-oriented wire format spoken between
// the user client, the broker, the relay device and the storage engine.
//
// Every message is a sequence of space-separated tokens terminated by '\n'.
// File contents travel in declared-length frames: a size token, exactly that
// many raw bytes, and one trailing '\n'. The end of a binary payload is never
// inferred from a newline.
package protocol

import (
	"errors"

	"github.com/dmitrijs2005/gophguard/internal/common"
)

// Request commands and their replies.
const (
	CmdLogin        = "LOG"
	CmdRequest      = "REQ"
	CmdAuthenticate = "AUT"
	CmdRegister     = "REG"
	CmdUnregister   = "UNR"
	CmdValidate     = "VLD"
	CmdChallenge    = "VLC"
	CmdList         = "LST"
	CmdRetrieve     = "RTV"
	CmdUpload       = "UPL"
	CmdDelete       = "DEL"
	CmdRemove       = "REM"

	ReplyLogin        = "RLO"
	ReplyRequest      = "RRQ"
	ReplyAuthenticate = "RAU"
	ReplyRegister     = "RRG"
	ReplyUnregister   = "RUN"
	ReplyValidate     = "CNF"
	ReplyChallenge    = "RVC"
	ReplyList         = "RLS"
	ReplyRetrieve     = "RRT"
	ReplyUpload       = "RUP"
	ReplyDelete       = "RDL"
	ReplyRemove       = "RRM"

	// ReplyError is the generic reply to an undecodable request.
	ReplyError = "ERR"
)

// Reply status tokens.
const (
	StatusOK      = "OK"
	StatusNOK     = "NOK"
	StatusEOF     = "EOF"
	StatusInvalid = "INV"
	StatusError   = "ERR"
	StatusDup     = "DUP"
	StatusFull    = "FULL"

	StatusNotLoggedIn  = "ELOG"
	StatusRelayDown    = "EPD"
	StatusUnknownUser  = "EUSER"
	StatusBadOperation = "EFOP"

	// StatusValidationFailed closes a CNF reply for a rejected transaction.
	StatusValidationFailed = "E"

	// AuthFailedTID is the tid returned by RAU when confirmation fails.
	AuthFailedTID = "0"
)

const (
	// MaxRequestLength bounds a request line.
	MaxRequestLength = 128
	// MaxReplyLength bounds a reply line; a full list reply fits in it.
	MaxReplyLength = 1024
	// MaxTokenLength bounds a single token read in token mode.
	MaxTokenLength = 32
	// MaxSizeDigits bounds the decimal width of a declared payload size.
	MaxSizeDigits = 10
)

var (
	// ErrMalformed marks any syntax or arity violation.
	ErrMalformed = common.ErrMalformedRequest
	// ErrUnknownOperation marks an operation letter outside L, R, U, D, X.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrLineTooLong is returned when a line exceeds its bound.
	ErrLineTooLong = errors.New("line too long")
	// ErrServerError is returned by reply parsers when the peer answered ERR.
	ErrServerError = errors.New("peer replied ERR")
	// ErrUnexpectedReply is returned when a reply does not match the request.
	ErrUnexpectedReply = errors.New("unexpected reply")
)
