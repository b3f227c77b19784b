package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophguard/internal/flagx"
	"github.com/dmitrijs2005/gophguard/internal/timex"
)

// JsonConfig is the on-disk shape of the broker configuration. Duration
// fields accept strings such as "5s" or integer nanoseconds.
type JsonConfig struct {
	Host               string         `json:"host"`
	Port               string         `json:"port"`
	Store              string         `json:"store"`
	DataDir            string         `json:"data_dir"`
	DatabaseDSN        string         `json:"database_dsn"`
	RelayTimeout       timex.Duration `json:"relay_timeout"`
	SessionIdleTimeout timex.Duration `json:"session_idle_timeout"`
	Verbose            *bool          `json:"verbose"`
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

	if c.Host != "" {
		config.Host = c.Host
	}
	if c.Port != "" {
		config.Port = c.Port
	}
	if c.Store != "" {
		config.Store = c.Store
	}
	if c.DataDir != "" {
		config.DataDir = c.DataDir
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.RelayTimeout.Duration > 0 {
		config.RelayTimeout = c.RelayTimeout.Duration
	}
	if c.SessionIdleTimeout.Duration > 0 {
		config.SessionIdleTimeout = c.SessionIdleTimeout.Duration
	}
	if c.Verbose != nil {
		config.Verbose = *c.Verbose
	}
}
