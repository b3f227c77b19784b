package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/flagx"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
)

// parseFlags populates selected Config fields from command-line flags.
// Invalid addresses, ports or a non-positive timeout panic.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-n", "-p", "-m", "-q", "-f", "-t"}, "-v")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BrokerHost, "n", cfg.BrokerHost, "broker IPv4 address")
	fs.StringVar(&cfg.BrokerPort, "p", cfg.BrokerPort, "broker port")
	fs.StringVar(&cfg.StorageHost, "m", cfg.StorageHost, "storage IPv4 address")
	fs.StringVar(&cfg.StoragePort, "q", cfg.StoragePort, "storage port")
	fs.StringVar(&cfg.FilesDir, "f", cfg.FilesDir, "directory for uploads and downloads")
	timeout := fs.Int("t", int(cfg.Timeout.Seconds()), "exchange timeout (in seconds)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose mode")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *timeout <= 0 {
		panic(fmt.Sprintf("invalid timeout: %d", *timeout))
	}
	cfg.Timeout = time.Duration(*timeout) * time.Second

	if !protocol.IsIPv4(cfg.BrokerHost) || !protocol.IsIPv4(cfg.StorageHost) {
		panic(fmt.Sprintf("invalid IPv4 address: broker %q, storage %q", cfg.BrokerHost, cfg.StorageHost))
	}
	if !protocol.IsPort(cfg.BrokerPort) || !protocol.IsPort(cfg.StoragePort) {
		panic(fmt.Sprintf("invalid port: broker %q, storage %q", cfg.BrokerPort, cfg.StoragePort))
	}
}
