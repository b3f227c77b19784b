package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophguard/internal/flagx"
	"github.com/dmitrijs2005/gophguard/internal/timex"
)

// JsonConfig is the on-disk shape of the relay configuration.
type JsonConfig struct {
	RelayHost  string         `json:"relay_host"`
	RelayPort  string         `json:"relay_port"`
	BrokerHost string         `json:"broker_host"`
	BrokerPort string         `json:"broker_port"`
	Timeout    timex.Duration `json:"timeout"`
	Verbose    *bool          `json:"verbose"`
}

// parseJson overlays values from the JSON file named by -c or -config.
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

	if c.RelayHost != "" {
		config.RelayHost = c.RelayHost
	}
	if c.RelayPort != "" {
		config.RelayPort = c.RelayPort
	}
	if c.BrokerHost != "" {
		config.BrokerHost = c.BrokerHost
	}
	if c.BrokerPort != "" {
		config.BrokerPort = c.BrokerPort
	}
	if c.Timeout.Duration > 0 {
		config.Timeout = c.Timeout.Duration
	}
	if c.Verbose != nil {
		config.Verbose = *c.Verbose
	}
}
