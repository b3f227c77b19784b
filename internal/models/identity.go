package models

import "time"

// Endpoint is the address of a registered relay device.
type Endpoint struct {
	Host string `json:"host"`
	Port string `json:"port"`
}

// Address returns the endpoint in host:port form.
func (e Endpoint) Address() string {
	return e.Host + ":" + e.Port
}

// IsZero reports whether no endpoint is registered.
func (e Endpoint) IsZero() bool {
	return e.Host == "" && e.Port == ""
}

// Identity is a registered user. The secret itself is never stored, only a
// salt and a verifier derived from it.
type Identity struct {
	UID       string    `json:"uid"`
	Salt      []byte    `json:"salt"`
	Verifier  []byte    `json:"verifier"`
	Relay     Endpoint  `json:"relay"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is everything the authorization store keeps for one identity.
type Record struct {
	Identity    Identity     `json:"identity"`
	Transaction *Transaction `json:"transaction,omitempty"`
}
