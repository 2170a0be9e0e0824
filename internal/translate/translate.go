// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package translate maps Gutendex book metadata onto the InvenioRDM record
// schema, and recovers a Gutenberg ebook number from a published record.
package translate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/gutenberg-invenio/internal/invenio"
	"github.com/pdiddy/gutenberg-invenio/internal/langcode"
	"github.com/pdiddy/gutenberg-invenio/internal/pubdata"
	"github.com/pdiddy/gutenberg-invenio/pkg/types"
)

// Fixed values written on every record.
const (
	Publisher        = "Project Gutenberg"
	ResourceType     = "publication-book"
	DefaultYear      = "1900"
	IDMarker         = "Project Gutenberg eBook #"
	ebookURLTemplate = "https://www.gutenberg.org/ebooks/%d"
)

// Translator builds record metadata from book metadata.
type Translator struct {
	// Years supplies publication years and encyclopedia URLs by book id.
	Years pubdata.Table

	// Languages converts two-letter codes; nil passes codes through.
	Languages langcode.Table

	// FallbackYear is used when Years has no entry (default "1900").
	FallbackYear string
}

// Build returns the record metadata for book.
func (t *Translator) Build(book types.Book) invenio.Metadata {
	md := invenio.Metadata{
		ResourceType:    invenio.Vocabulary{ID: ResourceType},
		Title:           book.DisplayTitle(),
		Creators:        creators(book.Authors),
		PublicationDate: t.publicationDate(book.ID),
		Languages:       t.languages(book.Languages),
		Subjects:        subjects(book),
		Identifiers:     []invenio.Identifier{{Identifier: strconv.Itoa(book.ID), Scheme: "other"}},
		Contributors:    contributors(book),
		Formats:         []string{"text/plain"},
		Publisher:       Publisher,
		Rights: []invenio.Right{{
			Title:       map[string]string{"en": "Public Domain"},
			Description: map[string]string{"en": "This work is in the public domain in the United States."},
		}},
		AdditionalDescriptions: []invenio.AdditionalDescription{{
			Description: Description(book.ID),
			Type:        invenio.Vocabulary{ID: "other"},
		}},
	}
	if len(book.Summaries) > 0 {
		md.Description = book.Summaries[0]
	}
	if rec, ok := t.Years.Lookup(book.ID); ok && rec.URL != "" {
		md.RelatedIdentifiers = []invenio.RelatedIdentifier{{
			Identifier:   rec.URL,
			Scheme:       "url",
			RelationType: invenio.Vocabulary{ID: "describes"},
			ResourceType: &invenio.Vocabulary{ID: "other"},
		}}
	}
	return md
}

// Description is the additional description that identifies the source
// ebook. ParseBookID reads it back.
func Description(id int) string {
	return fmt.Sprintf(IDMarker+"%d. Downloaded from "+ebookURLTemplate, id, id)
}

func (t *Translator) publicationDate(id int) string {
	if rec, ok := t.Years.Lookup(id); ok && rec.Year != 0 {
		return strconv.Itoa(rec.Year)
	}
	if t.FallbackYear != "" {
		return t.FallbackYear
	}
	return DefaultYear
}

func (t *Translator) languages(codes []string) []invenio.Vocabulary {
	if len(codes) == 0 {
		return nil
	}
	out := make([]invenio.Vocabulary, len(codes))
	for i, c := range codes {
		out[i] = invenio.Vocabulary{ID: langcode.Convert(t.Languages, c)}
	}
	return out
}

func creators(authors []types.Person) []invenio.Creator {
	if len(authors) == 0 {
		return []invenio.Creator{{PersonOrOrg: invenio.PersonOrOrg{
			Type:       "personal",
			Name:       "Unknown Author",
			FamilyName: "Unknown",
		}}}
	}
	out := make([]invenio.Creator, len(authors))
	for i, a := range authors {
		out[i] = invenio.Creator{PersonOrOrg: person(a.Name, "Unknown Author")}
	}
	return out
}

func contributors(book types.Book) []invenio.Contributor {
	var out []invenio.Contributor
	for _, e := range book.Editors {
		out = append(out, invenio.Contributor{
			PersonOrOrg: person(e.Name, "Unknown Editor"),
			Role:        invenio.Vocabulary{ID: "editor"},
		})
	}
	// The role vocabulary has no translator entry.
	for _, tr := range book.Translators {
		out = append(out, invenio.Contributor{
			PersonOrOrg: person(tr.Name, "Unknown Translator"),
			Role:        invenio.Vocabulary{ID: "other"},
		})
	}
	return out
}

func subjects(book types.Book) []invenio.Subject {
	shelves := book.Bookshelves
	if len(shelves) > 3 {
		shelves = shelves[:3]
	}
	var out []invenio.Subject
	for _, s := range book.Subjects {
		out = append(out, invenio.Subject{Subject: s})
	}
	for _, s := range shelves {
		out = append(out, invenio.Subject{Subject: s})
	}
	return out
}

func person(name, fallback string) invenio.PersonOrOrg {
	if name == "" {
		name = fallback
	}
	family, given := SplitName(name)
	return invenio.PersonOrOrg{
		Type:       "personal",
		Name:       name,
		GivenName:  given,
		FamilyName: family,
	}
}

// SplitName splits a "Family, Given" name at the first comma. A name with
// no comma is all family name.
func SplitName(name string) (family, given string) {
	family, given, found := strings.Cut(name, ",")
	if !found {
		return name, ""
	}
	return strings.TrimSpace(family), strings.TrimSpace(given)
}

// ParseBookID extracts the ebook number from text containing the
// identifying description: the digits between "#" and the next ".".
func ParseBookID(text string) (int, bool) {
	i := strings.Index(text, IDMarker)
	if i < 0 {
		return 0, false
	}
	rest := text[i+len(IDMarker):]
	if j := strings.IndexByte(rest, '.'); j >= 0 {
		rest = rest[:j]
	}
	id, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// RecordBookID recovers the ebook number of a published record from its
// additional descriptions.
func RecordBookID(rec invenio.Record) (int, bool) {
	for _, d := range rec.Metadata.AdditionalDescriptions {
		if id, ok := ParseBookID(d.Description); ok {
			return id, true
		}
	}
	return 0, false
}
