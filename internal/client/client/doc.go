// Package client contains the user-side transports of gophguard.
//
// # Overview
//
// The package provides:
//  1. BrokerSession, a persistent TCP session with the broker carrying LOG,
//     REQ and AUT exchanges. Login state lives in the session on the broker
//     side, so a broken session means logging in again.
//  2. StorageClient, which opens one TCP connection per storage request
//     (LST, RTV, UPL, DEL, REM) and streams file contents in
//     declared-length frames.
//
// # Error Handling
//
// Protocol outcomes are returned as reply status tokens (OK, NOK, EOF,
// INV, DUP, FULL, ...) for the caller to present. Errors are reserved for
// conditions without a status: ErrUnavailable when the peer cannot be
// reached or the connection breaks, protocol.ErrServerError for a bare ERR
// reply and protocol.ErrUnexpectedReply for anything undecodable.
//
// All operations accept context.Context; cancelling it closes the
// connection in use.
package client
