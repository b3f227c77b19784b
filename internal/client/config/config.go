package config

import (
	"net"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
)

// Config holds runtime settings for the user client.
type Config struct {
	BrokerHost  string
	BrokerPort  string
	StorageHost string
	StoragePort string
	FilesDir    string
	Timeout     time.Duration
	Verbose     bool
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.BrokerHost = "127.0.0.1"
	c.BrokerPort = common.DefaultBrokerPort
	c.StorageHost = "127.0.0.1"
	c.StoragePort = common.DefaultStoragePort
	c.FilesDir = "."
	c.Timeout = 15 * time.Second
	c.Verbose = false
}

func (c *Config) BrokerAddress() string {
	return net.JoinHostPort(c.BrokerHost, c.BrokerPort)
}

func (c *Config) StorageAddress() string {
	return net.JoinHostPort(c.StorageHost, c.StoragePort)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
