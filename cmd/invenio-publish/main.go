// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for invenio-publish, which turns harvested
// Project Gutenberg books into published InvenioRDM records, or refreshes
// the metadata of records published earlier.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/gutenberg-invenio/internal/cli"
)

const program = "invenio-publish"

// version is set at build time via ldflags.
var version = "dev"

var (
	logger    = zap.NewNop()
	configErr error
)

// rootCmd publishes or updates records when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   program,
	Short: "Publish harvested Gutenberg books to InvenioRDM",
	Long: `invenio-publish reads the data directory written by gutenberg-harvest and
creates one published InvenioRDM record per book: a draft with translated
metadata, the book's text file attached, then publication.

With --update it instead lists the Project Gutenberg records already on the
instance, and for each one creates a new version carrying the current
metadata and the previous version's files.

The bearer token is read from --token-file; a missing or empty token file is
the only fatal error. Individual books and records that fail are reported
and skipped.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		l, err := cli.NewLogger(viper.GetBool("verbose"))
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runPublish,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./invenio-publish.yaml or ~/.config/invenio-publish/config.yaml)")
	pf.Bool("verbose", false, "enable debug logging")
	pf.StringP("data-dir", "d", "gutenberg_data", "data directory written by gutenberg-harvest")
	pf.String("ledger", "", "audit ledger database (default: <data-dir>/ledger.db)")
	pf.Bool("no-ledger", false, "do not record the run in the audit ledger")

	bindFlags(pf, map[string]string{
		"verbose":   "verbose",
		"data_dir":  "data-dir",
		"ledger":    "ledger",
		"no_ledger": "no-ledger",
	})

	rootCmd.AddCommand(cli.NewRunsCmd(ledgerPath))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	used, err := cli.InitConfig(viper.GetViper(), program, "INVENIO_PUBLISH", cfgFile)
	if err != nil {
		configErr = err
		return
	}
	if used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

func ledgerPath() string {
	return cli.LedgerPath(viper.GetString("data_dir"), viper.GetString("ledger"), viper.GetBool("no_ledger"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
