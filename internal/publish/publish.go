// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish drives InvenioRDM record lifecycles for harvested books:
// new records (draft, upload, publish) and metadata refreshes of records
// already published (new version, import files, update, publish).
package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/gutenberg-invenio/internal/httputil"
	"github.com/pdiddy/gutenberg-invenio/internal/invenio"
	"github.com/pdiddy/gutenberg-invenio/internal/library"
	"github.com/pdiddy/gutenberg-invenio/internal/translate"
)

// Steps at which a book or record can fail.
const (
	StepLoad        = "load metadata"
	StepText        = "find text"
	StepDraft       = "create draft"
	StepUpload      = "upload file"
	StepPublish     = "publish"
	StepRecoverID   = "recover id"
	StepFind        = "find metadata"
	StepNewVersion  = "new version"
	StepImportFiles = "import files"
	StepUpdateDraft = "update draft"
)

// ReasonNoID is reported for listed records that carry no ebook number.
const ReasonNoID = "no Gutenberg id"

// Defaults for the pacing of a batch.
const (
	DefaultRecordDelay = time.Second
	DefaultPageDelay   = 500 * time.Millisecond
	DefaultPageSize    = 100
)

// Records is the subset of the InvenioRDM API the publisher uses.
type Records interface {
	CreateDraft(ctx context.Context, md invenio.Metadata) (*invenio.Record, error)
	UploadFile(ctx context.Context, draftID, name string, content io.Reader) error
	Publish(ctx context.Context, draftID string) (*invenio.Record, error)
	ListRecords(ctx context.Context, page, size int) ([]invenio.Record, error)
	NewVersion(ctx context.Context, recordID string) (*invenio.Record, error)
	ImportFiles(ctx context.Context, draftID string) error
	UpdateDraft(ctx context.Context, draftID string, md invenio.Metadata) error
	RecordURL(id string) string
}

// Published records a successful publish or update.
type Published struct {
	Name     string
	BookID   int
	RecordID string
	URL      string
}

// Failure records a book or record that did not complete.
type Failure struct {
	Name   string
	Title  string
	Step   string
	Reason string
}

// BatchResult holds the outcome of a publish or update batch.
type BatchResult struct {
	Succeeded []Published
	Failed    []Failure

	// ListErr is set when record listing stopped on an error.
	ListErr error
}

// Total returns the number of books or records attempted.
func (r BatchResult) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// HasFailures reports whether any item failed.
func (r BatchResult) HasFailures() bool {
	return len(r.Failed) > 0
}

// Publisher runs publish and update batches against one instance.
type Publisher struct {
	Records    Records
	Library    *library.Library
	Translator *translate.Translator

	RecordDelay time.Duration
	PageDelay   time.Duration
	PageSize    int

	Logger *zap.Logger
}

// New returns a Publisher with default pacing.
func New(records Records, lib *library.Library, tr *translate.Translator, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		Records:     records,
		Library:     lib,
		Translator:  tr,
		RecordDelay: DefaultRecordDelay,
		PageDelay:   DefaultPageDelay,
		PageSize:    DefaultPageSize,
		Logger:      logger,
	}
}

// PublishAll creates, uploads, and publishes one record per metadata file,
// in sorted order, up to limit books (0 means all). Per-book failures are
// collected and the batch continues. A missing metadata directory is an
// error.
func (p *Publisher) PublishAll(ctx context.Context, limit int, w io.Writer) (BatchResult, error) {
	var result BatchResult

	files, err := p.Library.MetadataFiles()
	if err != nil {
		return result, err
	}
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	fmt.Fprintf(w, "Publishing %d books\n", len(files))

	for i, path := range files {
		if i > 0 && p.RecordDelay > 0 {
			if err := httputil.Sleep(ctx, p.RecordDelay); err != nil {
				return result, err
			}
		}
		fmt.Fprintf(w, "[%d/%d] ", i+1, len(files))
		p.publishBook(ctx, path, w, &result)
	}

	PrintSummary(w, "Publish", result)
	return result, nil
}

func (p *Publisher) publishBook(ctx context.Context, path string, w io.Writer, result *BatchResult) {
	name := library.Stem(path)

	book, err := library.LoadBook(path)
	if err != nil {
		fmt.Fprintf(w, "%s\n", name)
		p.fail(result, Failure{Name: name, Step: StepLoad, Reason: err.Error()}, w)
		return
	}
	title := book.DisplayTitle()
	fmt.Fprintf(w, "publishing: %s (ID: %d)\n", title, book.ID)
	fail := func(step string, err error) {
		p.fail(result, Failure{Name: name, Title: title, Step: step, Reason: err.Error()}, w)
	}

	textPath := p.Library.TextPath(path)
	f, err := os.Open(textPath)
	if err != nil {
		fail(StepText, err)
		return
	}
	defer f.Close()

	draft, err := p.Records.CreateDraft(ctx, p.Translator.Build(book))
	if err != nil {
		fail(StepDraft, err)
		return
	}
	fmt.Fprintf(w, "  draft: %s\n", draft.ID)

	if err := p.Records.UploadFile(ctx, draft.ID, filepath.Base(textPath), f); err != nil {
		fail(StepUpload, err)
		return
	}

	rec, err := p.Records.Publish(ctx, draft.ID)
	if err != nil {
		fail(StepPublish, err)
		return
	}
	url := p.Records.RecordURL(rec.ID)
	fmt.Fprintf(w, "  published: %s\n", url)
	p.Logger.Info("record published",
		zap.String("name", name), zap.Int("book_id", book.ID), zap.String("record_id", rec.ID))
	result.Succeeded = append(result.Succeeded, Published{Name: name, BookID: book.ID, RecordID: rec.ID, URL: url})
}

// UpdateAll refreshes the metadata of published Project Gutenberg records
// from the local library, up to limit records (0 means all). Records are
// listed page by page until an empty page or a listing error; records from
// other publishers are skipped and do not count towards limit.
func (p *Publisher) UpdateAll(ctx context.Context, limit int, w io.Writer) (BatchResult, error) {
	var result BatchResult
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	fmt.Fprintln(w, "Updating Project Gutenberg records")

	processed := 0
pages:
	for page := 1; ; page++ {
		if limit > 0 && processed >= limit {
			break
		}
		if page > 1 {
			if err := httputil.Sleep(ctx, p.PageDelay); err != nil {
				return result, err
			}
		}
		records, err := p.Records.ListRecords(ctx, page, size)
		if err != nil {
			result.ListErr = err
			p.Logger.Warn("record listing stopped", zap.Int("page", page), zap.Error(err))
			fmt.Fprintf(w, "warning: record listing stopped at page %d (%v)\n", page, err)
			break
		}
		if len(records) == 0 {
			break
		}
		for _, rec := range records {
			if rec.Metadata.Publisher != translate.Publisher {
				continue
			}
			if limit > 0 && processed >= limit {
				break pages
			}
			if processed > 0 && p.RecordDelay > 0 {
				if err := httputil.Sleep(ctx, p.RecordDelay); err != nil {
					return result, err
				}
			}
			processed++
			fmt.Fprintf(w, "[%d] ", processed)
			p.updateRecord(ctx, rec, w, &result)
		}
	}

	PrintSummary(w, "Update", result)
	return result, nil
}

func (p *Publisher) updateRecord(ctx context.Context, rec invenio.Record, w io.Writer, result *BatchResult) {
	title := rec.Metadata.Title
	fmt.Fprintf(w, "updating: %s (record %s)\n", title, rec.ID)
	fail := func(step, reason string) {
		p.fail(result, Failure{Name: rec.ID, Title: title, Step: step, Reason: reason}, w)
	}

	bookID, ok := translate.RecordBookID(rec)
	if !ok {
		fail(StepRecoverID, ReasonNoID)
		return
	}

	path, err := p.Library.FindByID(bookID)
	if err != nil {
		fail(StepFind, err.Error())
		return
	}
	book, err := library.LoadBook(path)
	if err != nil {
		fail(StepLoad, err.Error())
		return
	}
	md := p.Translator.Build(book)

	draft, err := p.Records.NewVersion(ctx, rec.ID)
	if err != nil {
		fail(StepNewVersion, err.Error())
		return
	}
	fmt.Fprintf(w, "  new version: %s\n", draft.ID)

	if err := p.Records.ImportFiles(ctx, draft.ID); err != nil {
		fail(StepImportFiles, err.Error())
		return
	}
	if err := p.Records.UpdateDraft(ctx, draft.ID, md); err != nil {
		fail(StepUpdateDraft, err.Error())
		return
	}
	pub, err := p.Records.Publish(ctx, draft.ID)
	if err != nil {
		fail(StepPublish, err.Error())
		return
	}
	url := p.Records.RecordURL(pub.ID)
	fmt.Fprintf(w, "  published: %s\n", url)
	p.Logger.Info("record updated",
		zap.String("record_id", rec.ID), zap.String("new_id", pub.ID), zap.Int("book_id", bookID))
	result.Succeeded = append(result.Succeeded, Published{
		Name:     library.Stem(path),
		BookID:   bookID,
		RecordID: pub.ID,
		URL:      url,
	})
}

func (p *Publisher) fail(result *BatchResult, f Failure, w io.Writer) {
	p.Logger.Warn("step failed",
		zap.String("name", f.Name), zap.String("step", f.Step), zap.String("reason", f.Reason))
	fmt.Fprintf(w, "failed:  %s (%s: %s)\n", f.Name, f.Step, f.Reason)
	result.Failed = append(result.Failed, f)
}

// PrintSummary writes batch totals and the list of failures. label names
// the batch ("Publish", "Update").
func PrintSummary(w io.Writer, label string, r BatchResult) {
	fmt.Fprintf(w, "\n%s summary: %d succeeded, %d failed (total: %d)\n",
		label, len(r.Succeeded), len(r.Failed), r.Total())
	if len(r.Failed) == 0 {
		return
	}
	fmt.Fprintln(w, "Failed:")
	for _, f := range r.Failed {
		fmt.Fprintf(w, "  - %s: %s (%s)\n", f.Name, f.Title, f.Step)
	}
}
