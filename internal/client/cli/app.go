// Package cli implements vaultctl, the command-line client for LegacyKeeper.
//
// Local commands (encrypt, decrypt, recovery ...) never touch the network.
// Vault, upload and unlock commands talk to the server over gRPC; uploads go
// through the local pending queue so they survive being offline.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/buildinfo"
	"github.com/dmitrijs2005/legacykeeper/internal/client/client"
	"github.com/dmitrijs2005/legacykeeper/internal/client/config"
	"github.com/dmitrijs2005/legacykeeper/internal/client/pending"
	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// App carries what every subcommand needs. The constructors are fields so
// tests can swap in fakes.
type App struct {
	config    *config.Config
	logger    logging.Logger
	verbose   bool
	newClient func(cfg *config.Config) (client.Client, error)
	openDB    func(ctx context.Context, path string) (*sql.DB, error)
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		logger: logging.Discard(),
		newClient: func(cfg *config.Config) (client.Client, error) {
			return client.NewLegacyKeeperClientService(cfg.ServerEndpointAddr, cfg.RequestTimeout)
		},
		openDB: pending.OpenDatabase,
	}
}

// Run executes the command tree against os.Args.
func (a *App) Run(ctx context.Context) error {
	return a.RootCmd().ExecuteContext(ctx)
}

// RootCmd builds the full vaultctl command tree.
func (a *App) RootCmd() *cobra.Command {
	var (
		configPath        string
		reconcileSeconds  int
		requestTimeoutSec int
	)

	root := &cobra.Command{
		Use:           "vaultctl",
		Short:         "Zero-knowledge vault with a dead man's switch",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if a.verbose {
				level = "debug"
			}
			a.logger = logging.New(cmd.ErrOrStderr(), "text", level)

			if cmd.Flags().Changed("reconcile-interval") {
				a.config.ReconcileInterval = seconds(reconcileSeconds)
			}
			if cmd.Flags().Changed("timeout") {
				a.config.RequestTimeout = seconds(requestTimeoutSec)
			}
		},
	}

	// Same short names as the config flags so both parsers agree.
	pf := root.PersistentFlags()
	pf.StringVarP(&a.config.ServerEndpointAddr, "server", "a", a.config.ServerEndpointAddr, "address and port of the server")
	pf.StringVarP(&a.config.DatabasePath, "db", "f", a.config.DatabasePath, "local database file")
	pf.StringVarP(&a.config.StagingDir, "staging", "s", a.config.StagingDir, "staging directory for encrypted files")
	pf.IntVarP(&reconcileSeconds, "reconcile-interval", "i", int(a.config.ReconcileInterval.Seconds()), "reconcile interval (in seconds)")
	pf.IntVarP(&requestTimeoutSec, "timeout", "t", int(a.config.RequestTimeout.Seconds()), "request timeout (in seconds)")
	pf.StringVarP(&configPath, "config", "c", "", "path to JSON config file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.encryptCmd(),
		a.decryptCmd(),
		a.recoveryCmd(),
		a.vaultCmd(),
		a.heartbeatCmd(),
		a.uploadCmd(),
		a.syncCmd(),
		a.unlockCmd(),
		a.releaseCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}

// withClient opens a client for the duration of fn.
func (a *App) withClient(fn func(c client.Client) error) error {
	c, err := a.newClient(a.config)
	if err != nil {
		return fmt.Errorf("connect %s: %w", a.config.ServerEndpointAddr, err)
	}
	defer c.Close()
	return fn(c)
}

func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

func printFail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.RedString("✗")+" "+fmt.Sprintf(format, args...))
}

func printHint(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.CyanString("→")+" "+fmt.Sprintf(format, args...))
}

// promptPassword reads the vault password, preferring the environment so
// scripts can run unattended.
func promptPassword(w io.Writer, prompt string) (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}
	b, err := GetPassword(w, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(b)
	return string(b), nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

const passwordEnv = "LEGACYKEEPER_PASSWORD"
