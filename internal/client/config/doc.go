// Package config loads runtime configuration for the user client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-n string   broker IPv4 address
//	-p string   broker port
//	-m string   storage IPv4 address
//	-q string   storage port
//	-f string   directory files are uploaded from and retrieved into
//	-t int      per-exchange timeout (seconds)
//	-v          verbose logging
//
// # JSON schema
//
//	{
//	  "broker_host": "127.0.0.1",
//	  "broker_port": "58046",
//	  "storage_host": "127.0.0.1",
//	  "storage_port": "59046",
//	  "files_dir": ".",
//	  "timeout": "15s",
//	  "verbose": false
//	}
//
// The timeout covers a whole REQ exchange, during which the broker waits
// for the relay device, so it must be longer than the broker's relay
// timeout.
package config
