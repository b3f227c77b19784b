package client

import "errors"

var (
	ErrUnavailable = errors.New("server unavailable")
	// ErrSessionClosed is returned by a BrokerSession after it was reset;
	// the broker has forgotten the login.
	ErrSessionClosed = errors.New("broker session closed")
)
