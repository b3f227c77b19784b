// Package config handles configuration for the storage engine, including
// defaults, JSON overlay, and command-line flags.
package config

import (
	"net"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
)

// Blob backends.
const (
	BackendDisk = "disk"
	BackendS3   = "s3"
)

// Config holds runtime settings for the storage engine.
//
// Fields:
//   - Host / Port: bind address of the TCP listener.
//   - BrokerAddress: UDP address of the broker used for VLD.
//   - Backend: blob backend, disk or s3.
//   - DataDir: root of the disk backend and spool dir of the s3 backend.
//   - LockDir: per-identity lock files.
//   - ValidateTimeout: how long to wait for a CNF reply.
//   - IdleTimeout: limit on a stalled client connection.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
type Config struct {
	Host            string
	Port            string
	BrokerAddress   string
	Backend         string
	DataDir         string
	LockDir         string
	ValidateTimeout time.Duration
	IdleTimeout     time.Duration
	S3RootUser      string
	S3RootPassword  string
	S3Bucket        string
	S3Region        string
	S3BaseEndpoint  string
	Verbose         bool
}

// LoadDefaults populates Config with development defaults.
// NOTE: the S3 credentials are insecure and should be overridden.
func (c *Config) LoadDefaults() {
	c.Host = ""
	c.Port = common.DefaultStoragePort
	c.BrokerAddress = net.JoinHostPort("127.0.0.1", common.DefaultBrokerPort)
	c.Backend = BackendDisk
	c.DataDir = "data/storage"
	c.LockDir = "data/storage-locks"
	c.ValidateTimeout = 5 * time.Second
	c.IdleTimeout = time.Minute
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "vault"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.Verbose = false
}

// Address returns host:port for the listener.
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
