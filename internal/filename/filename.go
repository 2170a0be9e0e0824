// Package filename turns book titles into file stems that are safe on common
// filesystems. The ebook number in the stem is what keeps names unique; the
// sanitized title is cosmetic.
package filename

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultMaxLength is the rune limit applied to sanitized titles.
const DefaultMaxLength = 100

// Separator replaces whitespace runs.
const Separator = "_"

var (
	illegalRe    = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	controlRe    = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// Sanitize removes characters illegal in file names, collapses whitespace to
// Separator, trims separators and dots from both ends, and shortens the
// result to at most max runes at a separator boundary. A single word longer
// than max is cut at max. If max <= 0, no truncation is applied.
func Sanitize(title string, max int) string {
	s := illegalRe.ReplaceAllString(title, "")
	s = whitespaceRe.ReplaceAllString(s, Separator)
	s = controlRe.ReplaceAllString(s, "")
	s = trimEdges(s)

	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	cut := string(r[:max])
	if i := strings.LastIndex(cut, Separator); i > 0 {
		cut = cut[:i]
	}
	return trimEdges(cut)
}

// Stem builds the shared base name for a book's text and metadata files:
// "<id>_<sanitized title>", or "<id>" when nothing of the title survives.
func Stem(id int, title string) string {
	if title == "" {
		title = "Book_" + strconv.Itoa(id)
	}
	safe := Sanitize(title, DefaultMaxLength)
	if safe == "" {
		return strconv.Itoa(id)
	}
	return strconv.Itoa(id) + "_" + safe
}

func trimEdges(s string) string {
	return strings.Trim(s, "._")
}
