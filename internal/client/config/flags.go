package config

import (
	"flag"
	"os"

	"github.com/avilks/passvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the vault server
//	-k string   private-key file path
//	-f string   session cookie file path
//	-i string   device id sent with vault requests
//
// Arguments are pre-filtered through flagx.FilterArgs so the CLI's own
// subcommand arguments do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k", "-f", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the vault server")
	fs.StringVar(&cfg.KeyFile, "k", cfg.KeyFile, "private key file")
	fs.StringVar(&cfg.SessionFile, "f", cfg.SessionFile, "session cookie file")
	fs.StringVar(&cfg.DeviceID, "i", cfg.DeviceID, "device id")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
