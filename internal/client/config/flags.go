package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// Only the flags listed here are picked out of os.Args so that subcommand
// flags parsed elsewhere do not trip the flag set.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-s", "-i", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "local database file")
	fs.StringVar(&cfg.StagingDir, "s", cfg.StagingDir, "staging directory")
	reconcileInterval := fs.Int("i", int(cfg.ReconcileInterval.Seconds()), "reconcile interval (in seconds)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.ReconcileInterval = time.Duration(*reconcileInterval) * time.Second
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
