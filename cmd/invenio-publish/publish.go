// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/gutenberg-invenio/internal/cli"
	"github.com/pdiddy/gutenberg-invenio/internal/httputil"
	"github.com/pdiddy/gutenberg-invenio/internal/invenio"
	"github.com/pdiddy/gutenberg-invenio/internal/langcode"
	"github.com/pdiddy/gutenberg-invenio/internal/ledger"
	"github.com/pdiddy/gutenberg-invenio/internal/library"
	"github.com/pdiddy/gutenberg-invenio/internal/pubdata"
	"github.com/pdiddy/gutenberg-invenio/internal/publish"
	"github.com/pdiddy/gutenberg-invenio/internal/secrets"
	"github.com/pdiddy/gutenberg-invenio/internal/translate"
	"github.com/pdiddy/gutenberg-invenio/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "invenio-publish/0.1"
)

func init() {
	f := rootCmd.Flags()
	f.StringP("url", "u", invenio.DefaultBaseURL, "InvenioRDM base URL")
	f.StringP("token-file", "t", secrets.DefaultTokenFile, "file holding the API bearer token")
	f.IntP("limit", "n", 0, "maximum number of books or records to process (0 = all)")
	f.Bool("update", false, "refresh metadata of existing records instead of publishing new ones")
	f.Duration("record-delay", publish.DefaultRecordDelay, "pause between consecutive books or records")
	f.Duration("page-delay", publish.DefaultPageDelay, "pause between record listing pages (--update)")
	f.Int("page-size", publish.DefaultPageSize, "records per listing page (--update)")
	f.Bool("insecure", false, "skip TLS certificate verification (self-signed development instances)")
	f.String("fallback-year", translate.DefaultYear, "publication date for books missing from the publication CSV")
	f.Duration("timeout", defaultTimeout, "HTTP request timeout")

	bindFlags(f, map[string]string{
		"base_url":      "url",
		"token_file":    "token-file",
		"limit":         "limit",
		"update":        "update",
		"record_delay":  "record-delay",
		"page_delay":    "page-delay",
		"page_size":     "page-size",
		"insecure":      "insecure",
		"fallback_year": "fallback-year",
		"timeout":       "timeout",
	})
	viper.SetDefault("user_agent", defaultUserAgent)
}

// publishConfig assembles the stage config from flags, environment, and the
// config file.
func publishConfig() types.PublishConfig {
	return types.PublishConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: viper.GetString("user_agent"),
		},
		DataDir:      viper.GetString("data_dir"),
		BaseURL:      viper.GetString("base_url"),
		TokenFile:    viper.GetString("token_file"),
		Limit:        viper.GetInt("limit"),
		Update:       viper.GetBool("update"),
		RecordDelay:  viper.GetDuration("record_delay"),
		PageDelay:    viper.GetDuration("page_delay"),
		PageSize:     viper.GetInt("page_size"),
		Insecure:     viper.GetBool("insecure"),
		FallbackYear: viper.GetString("fallback_year"),
	}
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg := publishConfig()
	if cfg.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", cfg.Limit)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	token, err := secrets.ReadToken(cfg.TokenFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	lib := library.New(cfg.DataDir)
	tr := &translate.Translator{
		Years:        loadPublicationData(filepath.Join(cfg.DataDir, pubdata.FileName)),
		Languages:    langcode.XText{},
		FallbackYear: cfg.FallbackYear,
	}

	client := invenio.NewClient(httputil.NewClient(cfg.Timeout, cfg.Insecure), cfg.BaseURL, token, logger)
	client.UserAgent = cfg.UserAgent
	if cfg.Insecure {
		logger.Warn("TLS certificate verification disabled", zap.String("base_url", client.BaseURL))
	}

	p := publish.New(client, lib, tr, logger)
	p.RecordDelay = cfg.RecordDelay
	p.PageDelay = cfg.PageDelay
	if cfg.PageSize > 0 {
		p.PageSize = cfg.PageSize
	}

	fmt.Fprintf(out, "API: %s\n", client.APIURL())
	runLog := cli.StartRunLog(ctx, ledgerPath(), program, logger)

	var result publish.BatchResult
	if cfg.Update {
		result, err = p.UpdateAll(ctx, cfg.Limit, out)
	} else {
		result, err = p.PublishAll(ctx, cfg.Limit, out)
	}
	runLog.Record(ctx, publishEvents(result)...)
	if run, ok := runLog.Finish(ctx); ok {
		fmt.Fprintf(out, "Ledger run: %s\n", run.ID)
	}
	if err != nil {
		return err
	}
	if result.HasFailures() {
		logger.Warn("batch finished with failures", zap.Int("failed", len(result.Failed)))
	}
	return nil
}

// loadPublicationData reads the optional publication CSV. Problems are
// logged and yield an empty table, so every book falls back to the default
// date.
func loadPublicationData(path string) pubdata.Table {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Warn("publication data not found, using fallback dates", zap.String("path", path))
		return pubdata.Table{}
	}
	table, skipped, err := pubdata.Load(path)
	if err != nil {
		logger.Warn("publication data unreadable, using fallback dates", zap.String("path", path), zap.Error(err))
		return pubdata.Table{}
	}
	logger.Info("publication data loaded",
		zap.Int("years", len(table)),
		zap.Int("urls", table.URLs()),
		zap.Int("skipped_rows", skipped))
	return table
}

// publishEvents converts a batch result into ledger events, one per book or
// record.
func publishEvents(r publish.BatchResult) []ledger.Event {
	events := make([]ledger.Event, 0, r.Total())
	for _, s := range r.Succeeded {
		events = append(events, ledger.Event{
			Item:     s.Name,
			Status:   ledger.StatusOK,
			RemoteID: s.RecordID,
			Detail:   s.URL,
		})
	}
	for _, f := range r.Failed {
		events = append(events, ledger.Event{
			Item:   f.Name,
			Step:   f.Step,
			Status: ledger.StatusFailed,
			Detail: f.Reason,
		})
	}
	return events
}
