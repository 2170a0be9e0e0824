// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for gutenberg-harvest, which downloads
// Project Gutenberg books and their catalogue metadata into a local data
// directory for later publishing.
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

const program = "gutenberg-harvest"

// version is set at build time via ldflags.
var version = "dev"

var (
	logger    = zap.NewNop()
	configErr error
)

// rootCmd harvests books when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   program,
	Short: "Download Project Gutenberg books and metadata",
	Long: `gutenberg-harvest pages through the Gutendex catalogue for books in one
language, downloads each book's plain text from Project Gutenberg, strips the
licence header and footer, and stores text and metadata side by side:

  <output-dir>/books/<id>_<title>.txt
  <output-dir>/metadata/<id>_<title>.json
  <output-dir>/all_books_metadata.json

Failed books are reported and skipped; the run only fails when the catalogue
returns no books at all.`,
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
	RunE: runHarvest,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./gutenberg-harvest.yaml or ~/.config/gutenberg-harvest/config.yaml)")
	pf.Bool("verbose", false, "enable debug logging")
	pf.StringP("output-dir", "o", "gutenberg_data", "data directory for books and metadata")
	pf.String("ledger", "", "audit ledger database (default: <output-dir>/ledger.db)")
	pf.Bool("no-ledger", false, "do not record the run in the audit ledger")

	bindFlags(pf, map[string]string{
		"verbose":    "verbose",
		"output_dir": "output-dir",
		"ledger":     "ledger",
		"no_ledger":  "no-ledger",
	})

	rootCmd.AddCommand(cli.NewRunsCmd(ledgerPath))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	used, err := cli.InitConfig(viper.GetViper(), program, "GUTENBERG_HARVEST", cfgFile)
	if err != nil {
		configErr = err
		return
	}
	if used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

func ledgerPath() string {
	return cli.LedgerPath(viper.GetString("output_dir"), viper.GetString("ledger"), viper.GetBool("no_ledger"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
