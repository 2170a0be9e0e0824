// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
)

// Person is an author, editor, or translator as listed by Gutendex.
// Names usually follow the "Family, Given" convention.
type Person struct {
	Name      string `json:"name"`
	BirthYear *int   `json:"birth_year"`
	DeathYear *int   `json:"death_year"`
}

// Book holds the metadata of one Project Gutenberg book as returned by the
// Gutendex listing endpoint. Every field the pipelines consume is declared
// here; absent lists decode to nil and mean "none".
type Book struct {
	// ID is the Project Gutenberg ebook number.
	ID int `json:"id"`

	// Title is the book title. May be empty.
	Title string `json:"title"`

	Authors     []Person `json:"authors"`
	Translators []Person `json:"translators"`
	Editors     []Person `json:"editors"`

	// Subjects are Library of Congress subject headings.
	Subjects []string `json:"subjects"`

	// Bookshelves are Project Gutenberg's own collection tags.
	Bookshelves []string `json:"bookshelves"`

	// Summaries holds machine-generated summaries; the first one is used
	// as the record description.
	Summaries []string `json:"summaries"`

	// Languages are two-letter (ISO 639-1) codes, occasionally three-letter.
	Languages []string `json:"languages"`

	Copyright     *bool             `json:"copyright"`
	MediaType     string            `json:"media_type"`
	Formats       map[string]string `json:"formats"`
	DownloadCount int               `json:"download_count"`

	// raw is the JSON object exactly as fetched. It is written back when the
	// book is persisted so fields this package does not model survive.
	raw json.RawMessage
}

// bookFields avoids recursion into Book.UnmarshalJSON.
type bookFields Book

// UnmarshalJSON decodes the modelled fields and keeps the original bytes.
func (b *Book) UnmarshalJSON(data []byte) error {
	var f bookFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decoding book: %w", err)
	}
	*b = Book(f)
	b.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the original bytes when the book was decoded from
// JSON, and the modelled fields otherwise.
func (b Book) MarshalJSON() ([]byte, error) {
	if len(b.raw) > 0 {
		return b.raw, nil
	}
	return json.Marshal(bookFields(b))
}

// DisplayTitle returns the title, or a placeholder built from the id.
func (b Book) DisplayTitle() string {
	if b.Title != "" {
		return b.Title
	}
	return fmt.Sprintf("Book %d", b.ID)
}
