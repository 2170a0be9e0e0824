// Package pubdata loads the optional publication-year table: a CSV keyed by
// Project Gutenberg id that supplies the original publication year and,
// sometimes, a Wikipedia article describing the work.
package pubdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// FileName is the CSV looked up in the data directory.
const FileName = "gutenberg_publication_years.csv"

const (
	colID   = "gutenberg_id"
	colYear = "publication_year"
	colURL  = "wikipedia_url"
)

// Record is the auxiliary data for one book.
type Record struct {
	Year int
	URL  string
}

// Table maps a Gutenberg id to its Record. A nil Table is an empty lookup.
type Table map[int]Record

// Lookup returns the record for id.
func (t Table) Lookup(id int) (Record, bool) {
	r, ok := t[id]
	return r, ok
}

// URLs counts the records that carry a related URL.
func (t Table) URLs() int {
	n := 0
	for _, r := range t {
		if r.URL != "" {
			n++
		}
	}
	return n
}

// Load reads the CSV at path. A missing file yields an empty table and no
// error. Rows whose id or year do not parse are skipped and counted.
func Load(path string) (Table, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Table{}, 0, nil
		}
		return Table{}, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads CSV rows with a header line naming the gutenberg_id,
// publication_year, and optional wikipedia_url columns.
func Parse(r io.Reader) (Table, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, 0, nil
		}
		return Table{}, 0, fmt.Errorf("reading header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	idCol, okID := idx[colID]
	yearCol, okYear := idx[colYear]
	if !okID || !okYear {
		return Table{}, 0, fmt.Errorf("header must contain %s and %s", colID, colYear)
	}
	urlCol, hasURL := idx[colURL]

	table := Table{}
	skipped := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		id, idErr := strconv.Atoi(field(row, idCol))
		year, yearErr := strconv.Atoi(field(row, yearCol))
		if idErr != nil || yearErr != nil {
			skipped++
			continue
		}
		rec := Record{Year: year}
		if hasURL {
			rec.URL = field(row, urlCol)
		}
		table[id] = rec
	}
	return table, skipped, nil
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
