package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/flagx"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
)

// parseFlags populates relay Config fields from command-line flags.
//
// Supported flags:
//
//	-i string   relay IPv4 address announced to the broker
//	-d string   relay port
//	-n string   broker IPv4 address
//	-p string   broker port
//	-t int      broker reply timeout, seconds
//	-v          verbose logging
//
// Invalid addresses or ports panic.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-i", "-d", "-n", "-p", "-t"}, "-v")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.RelayHost, "i", config.RelayHost, "relay IPv4 address")
	fs.StringVar(&config.RelayPort, "d", config.RelayPort, "relay port")
	fs.StringVar(&config.BrokerHost, "n", config.BrokerHost, "broker IPv4 address")
	fs.StringVar(&config.BrokerPort, "p", config.BrokerPort, "broker port")
	timeout := fs.Int("t", int(config.Timeout.Seconds()), "broker timeout (in seconds)")
	fs.BoolVar(&config.Verbose, "v", config.Verbose, "verbose mode")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.Timeout = time.Duration(*timeout) * time.Second

	if !protocol.IsIPv4(config.RelayHost) || !protocol.IsIPv4(config.BrokerHost) {
		panic(fmt.Sprintf("invalid IPv4 address: relay %q, broker %q", config.RelayHost, config.BrokerHost))
	}
	if !protocol.IsPort(config.RelayPort) || !protocol.IsPort(config.BrokerPort) {
		panic(fmt.Sprintf("invalid port: relay %q, broker %q", config.RelayPort, config.BrokerPort))
	}
}
