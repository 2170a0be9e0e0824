// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library owns the on-disk layout shared by the harvester and the
// publisher: one text file and one metadata file per book under a common
// stem, plus an aggregate metadata file for the whole run.
//
//	<root>/books/<stem>.txt
//	<root>/metadata/<stem>.json
//	<root>/all_books_metadata.json
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/gutenberg-invenio/internal/filename"
	"github.com/pdiddy/gutenberg-invenio/pkg/types"
)

const (
	booksDir      = "books"
	metadataDir   = "metadata"
	aggregateFile = "all_books_metadata.json"

	textExt     = ".txt"
	metadataExt = ".json"
)

// ErrNotFound is returned when no local file matches a book.
var ErrNotFound = errors.New("not found in library")

// Library is a storage root.
type Library struct {
	Root string
}

// New returns a Library rooted at dir.
func New(dir string) *Library {
	return &Library{Root: dir}
}

// BooksDir is the directory holding cleaned texts.
func (l *Library) BooksDir() string { return filepath.Join(l.Root, booksDir) }

// MetadataDir is the directory holding per-book metadata.
func (l *Library) MetadataDir() string { return filepath.Join(l.Root, metadataDir) }

// AggregatePath is the location of the run-wide metadata file.
func (l *Library) AggregatePath() string { return filepath.Join(l.Root, aggregateFile) }

// Init creates the books and metadata directories.
func (l *Library) Init() error {
	for _, dir := range []string{l.BooksDir(), l.MetadataDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// Save writes a book's text and metadata under the book's stem and returns
// the stem. The text is written first; a failure on either file is returned
// and the other file may be left behind.
func (l *Library) Save(book types.Book, text string) (string, error) {
	stem := filename.Stem(book.ID, book.Title)

	textPath := filepath.Join(l.BooksDir(), stem+textExt)
	if err := writeFileAtomic(textPath, []byte(text)); err != nil {
		return stem, fmt.Errorf("saving text for %d: %w", book.ID, err)
	}

	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return stem, fmt.Errorf("marshaling metadata for %d: %w", book.ID, err)
	}
	metaPath := filepath.Join(l.MetadataDir(), stem+metadataExt)
	if err := writeFileAtomic(metaPath, data); err != nil {
		return stem, fmt.Errorf("saving metadata for %d: %w", book.ID, err)
	}
	return stem, nil
}

// SaveAggregate writes the full fetched metadata list, regardless of which
// books were saved individually.
func (l *Library) SaveAggregate(books []types.Book) error {
	if books == nil {
		books = []types.Book{}
	}
	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling aggregate metadata: %w", err)
	}
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", l.Root, err)
	}
	return writeFileAtomic(l.AggregatePath(), data)
}

// MetadataFiles lists the per-book metadata files in lexical order.
func (l *Library) MetadataFiles() ([]string, error) {
	if _, err := os.Stat(l.MetadataDir()); err != nil {
		return nil, fmt.Errorf("metadata directory: %w", err)
	}
	paths, err := filepath.Glob(filepath.Join(l.MetadataDir(), "*"+metadataExt))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadBook reads one metadata file.
func LoadBook(path string) (types.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Book{}, err
	}
	var b types.Book
	if err := json.Unmarshal(data, &b); err != nil {
		return types.Book{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return b, nil
}

// Stem returns the shared base name of a metadata or text path.
func Stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// TextPath returns the text file that pairs with a metadata file.
func (l *Library) TextPath(metaPath string) string {
	return filepath.Join(l.BooksDir(), Stem(metaPath)+textExt)
}

// HasText reports whether the text paired with metaPath exists.
func (l *Library) HasText(metaPath string) bool {
	info, err := os.Stat(l.TextPath(metaPath))
	return err == nil && !info.IsDir()
}

// FindByID locates the metadata file of a book by its id prefix. When
// several files share the prefix the first in lexical order wins.
func (l *Library) FindByID(id int) (string, error) {
	prefix := strconv.Itoa(id)
	matches, err := filepath.Glob(filepath.Join(l.MetadataDir(), prefix+"_*"+metadataExt))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		bare := filepath.Join(l.MetadataDir(), prefix+metadataExt)
		if _, err := os.Stat(bare); err == nil {
			return bare, nil
		}
		return "", fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// writeFileAtomic writes data to a temporary file in the destination
// directory and renames it into place.
func writeFileAtomic(destPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".library-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	if writeErr == nil {
		writeErr = tmpFile.Chmod(0o644)
	}
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", filepath.Base(destPath), writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
