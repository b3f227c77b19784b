package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophguard/internal/flagx"
	"github.com/dmitrijs2005/gophguard/internal/timex"
)

// JsonConfig is the on-disk shape of the storage configuration.
type JsonConfig struct {
	Host            string         `json:"host"`
	Port            string         `json:"port"`
	BrokerAddress   string         `json:"broker_address"`
	Backend         string         `json:"backend"`
	DataDir         string         `json:"data_dir"`
	LockDir         string         `json:"lock_dir"`
	ValidateTimeout timex.Duration `json:"validate_timeout"`
	IdleTimeout     timex.Duration `json:"idle_timeout"`
	S3RootUser      string         `json:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Region        string         `json:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
	Verbose         *bool          `json:"verbose"`
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays values from the JSON file named by -c or -config.
// Absent fields keep their current value. An unreadable or invalid file
// panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay(&config.Host, c.Host)
	overlay(&config.Port, c.Port)
	overlay(&config.BrokerAddress, c.BrokerAddress)
	overlay(&config.Backend, c.Backend)
	overlay(&config.DataDir, c.DataDir)
	overlay(&config.LockDir, c.LockDir)
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.ValidateTimeout.Duration > 0 {
		config.ValidateTimeout = c.ValidateTimeout.Duration
	}
	if c.IdleTimeout.Duration > 0 {
		config.IdleTimeout = c.IdleTimeout.Duration
	}
	if c.Verbose != nil {
		config.Verbose = *c.Verbose
	}
}
