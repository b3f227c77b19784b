package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/flagx"
)

// parseFlags populates storage Config fields from command-line flags.
//
// Supported flags:
//
//	-n string   bind host (empty for all interfaces)
//	-p string   storage port
//	-a string   broker address host:port
//	-b string   blob backend: disk, s3
//	-r string   data directory
//	-l string   lock directory
//	-t int      broker validation timeout, seconds
//	-bucket     S3 bucket
//	-endpoint   S3 base endpoint
//	-v          verbose request logging
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-n", "-p", "-a", "-b", "-r", "-l", "-t", "-bucket", "-endpoint"}, "-v")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Host, "n", config.Host, "bind host")
	fs.StringVar(&config.Port, "p", config.Port, "storage port")
	fs.StringVar(&config.BrokerAddress, "a", config.BrokerAddress, "broker address")
	fs.StringVar(&config.Backend, "b", config.Backend, "blob backend (disk, s3)")
	fs.StringVar(&config.DataDir, "r", config.DataDir, "data directory")
	fs.StringVar(&config.LockDir, "l", config.LockDir, "lock directory")
	validateTimeout := fs.Int("t", int(config.ValidateTimeout.Seconds()), "validation timeout (in seconds)")
	fs.StringVar(&config.S3Bucket, "bucket", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "endpoint", config.S3BaseEndpoint, "S3 base endpoint")
	fs.BoolVar(&config.Verbose, "v", config.Verbose, "verbose mode")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ValidateTimeout = time.Duration(*validateTimeout) * time.Second
}
