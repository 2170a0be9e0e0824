// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest retrieves Project Gutenberg books and stores them locally:
// metadata from the catalogue, the cleaned text of each book, and an
// aggregate metadata file for the run.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/gutenberg-invenio/internal/httputil"
	"github.com/pdiddy/gutenberg-invenio/internal/library"
	"github.com/pdiddy/gutenberg-invenio/pkg/types"
)

// ErrNoBooks is returned when the catalogue yields no metadata at all.
var ErrNoBooks = errors.New("no books found")

// Failure reasons.
const (
	ReasonDownload = "download failed"
	ReasonSave     = "save failed"
)

// Source provides book metadata and cleaned book text.
type Source interface {
	FetchMetadata(ctx context.Context, count int, language string) ([]types.Book, error)
	FetchText(ctx context.Context, id int) (string, error)
}

// Saved records a book written to the library.
type Saved struct {
	ID    int
	Title string
	Stem  string
}

// Failure records a book that could not be harvested.
type Failure struct {
	ID     int
	Title  string
	Reason string
	Err    error
}

// BatchResult holds the outcome of a harvest run.
type BatchResult struct {
	Books  []types.Book
	Saved  []Saved
	Failed []Failure

	// MetadataErr is set when catalogue paging stopped early.
	MetadataErr error
}

// Total returns the number of books attempted.
func (r BatchResult) Total() int {
	return len(r.Saved) + len(r.Failed)
}

// HasFailures reports whether any book failed.
func (r BatchResult) HasFailures() bool {
	return len(r.Failed) > 0
}

// Harvester runs the harvest pipeline.
type Harvester struct {
	Source  Source
	Library *library.Library

	// BookDelay separates consecutive books.
	BookDelay time.Duration

	Logger *zap.Logger
}

// New returns a Harvester writing into lib.
func New(src Source, lib *library.Library, bookDelay time.Duration, logger *zap.Logger) *Harvester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{Source: src, Library: lib, BookDelay: bookDelay, Logger: logger}
}

// Run fetches metadata for count books in language, then downloads and
// stores each book in turn. Per-book failures are collected; only an empty
// catalogue aborts the run. The aggregate metadata file is written after
// all books, and an error writing it is returned with the result.
func (h *Harvester) Run(ctx context.Context, count int, language string, w io.Writer) (BatchResult, error) {
	var result BatchResult

	fmt.Fprintf(w, "Fetching metadata for %d %s books...\n", count, language)
	books, err := h.Source.FetchMetadata(ctx, count, language)
	if err != nil {
		result.MetadataErr = err
		h.Logger.Warn("metadata paging stopped early",
			zap.Int("fetched", len(books)), zap.Error(err))
		fmt.Fprintf(w, "warning: metadata fetch stopped early (%v)\n", err)
	}
	result.Books = books
	if len(books) == 0 {
		return result, ErrNoBooks
	}
	fmt.Fprintf(w, "Fetched metadata for %d books\n", len(books))

	if err := h.Library.Init(); err != nil {
		h.Logger.Error("creating library directories", zap.Error(err))
	}

	for i, book := range books {
		if i > 0 && h.BookDelay > 0 {
			if err := httputil.Sleep(ctx, h.BookDelay); err != nil {
				return result, err
			}
		}
		title := book.DisplayTitle()
		fmt.Fprintf(w, "[%d/%d] downloading: %s (ID: %d)\n", i+1, len(books), title, book.ID)

		text, err := h.Source.FetchText(ctx, book.ID)
		if err != nil {
			h.fail(&result, book, ReasonDownload, err, w)
			continue
		}
		stem, err := h.Library.Save(book, text)
		if err != nil {
			h.fail(&result, book, ReasonSave, err, w)
			continue
		}
		fmt.Fprintf(w, "  saved: %s\n", stem)
		result.Saved = append(result.Saved, Saved{ID: book.ID, Title: title, Stem: stem})
	}

	PrintSummary(w, result)

	if err := h.Library.SaveAggregate(books); err != nil {
		return result, fmt.Errorf("writing aggregate metadata: %w", err)
	}
	fmt.Fprintf(w, "All metadata saved to: %s\n", h.Library.AggregatePath())
	return result, nil
}

func (h *Harvester) fail(result *BatchResult, book types.Book, reason string, err error, w io.Writer) {
	h.Logger.Warn(reason, zap.Int("id", book.ID), zap.Error(err))
	fmt.Fprintf(w, "failed:  %d (%s: %v)\n", book.ID, reason, err)
	result.Failed = append(result.Failed, Failure{
		ID:     book.ID,
		Title:  book.DisplayTitle(),
		Reason: reason,
		Err:    err,
	})
}

// PrintSummary writes the run totals and the list of failed books.
func PrintSummary(w io.Writer, r BatchResult) {
	fmt.Fprintf(w, "\nHarvest summary: %d saved, %d failed (total: %d)\n",
		len(r.Saved), len(r.Failed), r.Total())
	if len(r.Failed) == 0 {
		return
	}
	fmt.Fprintln(w, "Failed downloads:")
	for _, f := range r.Failed {
		fmt.Fprintf(w, "  - %d: %s (%s)\n", f.ID, f.Title, f.Reason)
	}
}
