package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/flagx"
)

// parseFlags populates broker Config fields from command-line flags.
//
// Supported flags:
//
//	-n string   bind host (empty for all interfaces)
//	-p string   port for both UDP and TCP
//	-s string   store backend: file, sqlite, postgres
//	-r string   file store root directory
//	-d string   database DSN
//	-t int      relay acknowledgement timeout, seconds
//	-v          verbose request logging
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-n", "-p", "-s", "-r", "-d", "-t"}, "-v")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Host, "n", config.Host, "bind host")
	fs.StringVar(&config.Port, "p", config.Port, "broker port")
	fs.StringVar(&config.Store, "s", config.Store, "store backend (file, sqlite, postgres)")
	fs.StringVar(&config.DataDir, "r", config.DataDir, "file store root directory")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	relayTimeout := fs.Int("t", int(config.RelayTimeout.Seconds()), "relay timeout (in seconds)")
	fs.BoolVar(&config.Verbose, "v", config.Verbose, "verbose mode")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RelayTimeout = time.Duration(*relayTimeout) * time.Second
}
