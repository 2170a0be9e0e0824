// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/gutenberg-invenio/internal/cli"
	"github.com/pdiddy/gutenberg-invenio/internal/gutendex"
	"github.com/pdiddy/gutenberg-invenio/internal/harvest"
	"github.com/pdiddy/gutenberg-invenio/internal/httputil"
	"github.com/pdiddy/gutenberg-invenio/internal/ledger"
	"github.com/pdiddy/gutenberg-invenio/internal/library"
	"github.com/pdiddy/gutenberg-invenio/internal/textclean"
	"github.com/pdiddy/gutenberg-invenio/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultPageDelay = 1 * time.Second
	defaultBookDelay = 2 * time.Second
	defaultUserAgent = "gutenberg-harvest/0.1"
)

func init() {
	f := rootCmd.Flags()
	f.IntP("num-books", "n", 100, "number of books to download")
	f.StringP("language", "l", "en", "language code to filter the catalogue by")
	f.Duration("page-delay", defaultPageDelay, "pause after each catalogue page")
	f.Duration("book-delay", defaultBookDelay, "pause between consecutive books")
	f.String("markers", "", "YAML file of licence start/end patterns (default: built-in Gutenberg banners)")
	f.Duration("timeout", defaultTimeout, "HTTP request timeout")

	bindFlags(f, map[string]string{
		"num_books":    "num-books",
		"language":     "language",
		"page_delay":   "page-delay",
		"book_delay":   "book-delay",
		"markers_file": "markers",
		"timeout":      "timeout",
	})
	viper.SetDefault("user_agent", defaultUserAgent)
}

// harvestConfig assembles the stage config from flags, environment, and the
// config file.
func harvestConfig() types.HarvestConfig {
	return types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: viper.GetString("user_agent"),
		},
		NumBooks:        viper.GetInt("num_books"),
		Language:        viper.GetString("language"),
		OutputDir:       viper.GetString("output_dir"),
		APIBase:         viper.GetString("api_base"),
		TextURLTemplate: viper.GetString("text_url_template"),
		PageDelay:       viper.GetDuration("page_delay"),
		BookDelay:       viper.GetDuration("book_delay"),
		MarkersFile:     viper.GetString("markers_file"),
	}
}

func runHarvest(cmd *cobra.Command, args []string) error {
	cfg := harvestConfig()
	if cfg.NumBooks <= 0 {
		return fmt.Errorf("num-books must be positive, got %d", cfg.NumBooks)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	markers := textclean.Default()
	if cfg.MarkersFile != "" {
		m, err := textclean.LoadMarkers(cfg.MarkersFile)
		if err != nil {
			return err
		}
		markers = m
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger.Info("harvest starting",
		zap.Int("num_books", cfg.NumBooks),
		zap.String("language", cfg.Language),
		zap.String("output_dir", cfg.OutputDir))

	client := gutendex.NewClient(httputil.NewClient(cfg.Timeout, false), cfg, markers, logger)
	lib := library.New(cfg.OutputDir)
	runLog := cli.StartRunLog(ctx, ledgerPath(), program, logger)

	result, err := harvest.New(client, lib, cfg.BookDelay, logger).Run(ctx, cfg.NumBooks, cfg.Language, out)
	runLog.Record(ctx, harvestEvents(result)...)
	if run, ok := runLog.Finish(ctx); ok {
		fmt.Fprintf(out, "Ledger run: %s\n", run.ID)
	}
	if err != nil {
		return err
	}
	if result.HasFailures() {
		logger.Warn("harvest finished with failures", zap.Int("failed", len(result.Failed)))
	}
	return nil
}

// harvestEvents converts a batch result into ledger events, one per book.
func harvestEvents(r harvest.BatchResult) []ledger.Event {
	events := make([]ledger.Event, 0, r.Total())
	for _, s := range r.Saved {
		events = append(events, ledger.Event{
			Item:   strconv.Itoa(s.ID),
			Status: ledger.StatusOK,
			Detail: s.Stem,
		})
	}
	for _, f := range r.Failed {
		e := ledger.Event{
			Item:   strconv.Itoa(f.ID),
			Step:   f.Reason,
			Status: ledger.StatusFailed,
		}
		if f.Err != nil {
			e.Detail = f.Err.Error()
		}
		events = append(events, e)
	}
	return events
}
