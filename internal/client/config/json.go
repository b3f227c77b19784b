package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophguard/internal/flagx"
	"github.com/dmitrijs2005/gophguard/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	BrokerHost  string         `json:"broker_host"`
	BrokerPort  string         `json:"broker_port"`
	StorageHost string         `json:"storage_host"`
	StoragePort string         `json:"storage_port"`
	FilesDir    string         `json:"files_dir"`
	Timeout     timex.Duration `json:"timeout"`
	Verbose     *bool          `json:"verbose"`
}

// parseJson overlays Config with the fields present in the JSON file named
// by -c or -config. Read or unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BrokerHost != "" {
		cfg.BrokerHost = jc.BrokerHost
	}
	if jc.BrokerPort != "" {
		cfg.BrokerPort = jc.BrokerPort
	}
	if jc.StorageHost != "" {
		cfg.StorageHost = jc.StorageHost
	}
	if jc.StoragePort != "" {
		cfg.StoragePort = jc.StoragePort
	}
	if jc.FilesDir != "" {
		cfg.FilesDir = jc.FilesDir
	}
	if jc.Timeout.Duration > 0 {
		cfg.Timeout = jc.Timeout.Duration
	}
	if jc.Verbose != nil {
		cfg.Verbose = *jc.Verbose
	}
}
