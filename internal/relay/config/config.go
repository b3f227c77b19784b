// Package config handles configuration for the relay device, including
// defaults, JSON overlay, and command-line flags.
package config

import (
	"net"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
)

// Config holds runtime settings for the relay device.
//
// Fields:
//   - RelayHost / RelayPort: IPv4 address announced to the broker and the
//     port the device listens on for codes.
//   - BrokerHost / BrokerPort: UDP address of the broker.
//   - Timeout: how long to wait for the broker to answer REG and UNR.
//   - Verbose: log every challenge to stderr.
type Config struct {
	RelayHost  string
	RelayPort  string
	BrokerHost string
	BrokerPort string
	Timeout    time.Duration
	Verbose    bool
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.RelayHost = "127.0.0.1"
	c.RelayPort = common.DefaultRelayPort
	c.BrokerHost = "127.0.0.1"
	c.BrokerPort = common.DefaultBrokerPort
	c.Timeout = 5 * time.Second
	c.Verbose = false
}

// ListenAddress returns the address the device binds, on all interfaces.
func (c *Config) ListenAddress() string {
	return net.JoinHostPort("", c.RelayPort)
}

func (c *Config) BrokerAddress() string {
	return net.JoinHostPort(c.BrokerHost, c.BrokerPort)
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
