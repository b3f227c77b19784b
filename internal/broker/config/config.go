// Package config handles configuration for the broker, including defaults,
// JSON overlay, and command-line flags.
package config

import (
	"net"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
)

// Store backends of the authorization store.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds runtime settings for the broker.
//
// Fields:
//   - Host / Port: bind address shared by the UDP and TCP listeners.
//   - Store: identity store backend, one of file, sqlite, postgres.
//   - DataDir: root directory of the file store.
//   - DatabaseDSN: DSN of the sqlite or postgres store.
//   - RelayTimeout: how long to wait for a relay to acknowledge a code.
//   - SessionIdleTimeout: idle limit of a user TCP session.
//   - Verbose: log every request and reply.
type Config struct {
	Host               string
	Port               string
	Store              string
	DataDir            string
	DatabaseDSN        string
	RelayTimeout       time.Duration
	SessionIdleTimeout time.Duration
	Verbose            bool
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Host = ""
	c.Port = common.DefaultBrokerPort
	c.Store = StoreFile
	c.DataDir = "data/broker"
	c.DatabaseDSN = "file:data/broker.db"
	c.RelayTimeout = 5 * time.Second
	c.SessionIdleTimeout = 10 * time.Minute
	c.Verbose = false
}

// Address returns host:port for the listeners.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
