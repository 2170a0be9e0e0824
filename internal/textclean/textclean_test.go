// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textclean

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBook = `The Project Gutenberg eBook of Frankenstein

This eBook is for the use of anyone anywhere.

*** START OF THIS PROJECT GUTENBERG EBOOK FRANKENSTEIN ***

Letter 1

You will rejoice to hear that no disaster has accompanied the commencement.

*** END OF THIS PROJECT GUTENBERG EBOOK FRANKENSTEIN ***

Updated editions will replace the previous one.`

func TestStrip(t *testing.T) {
	m := Default()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "both markers",
			text: sampleBook,
			want: "Letter 1\n\nYou will rejoice to hear that no disaster has accompanied the commencement.",
		},
		{
			name: "no markers returns trimmed text",
			text: "  \n Just a body.\n\n",
			want: "Just a body.",
		},
		{
			name: "start marker only",
			text: "header\n*** START OF THIS PROJECT GUTENBERG EBOOK X ***\nbody\n",
			want: "body",
		},
		{
			name: "end marker only",
			text: "body\n*** END OF THIS PROJECT GUTENBERG EBOOK X ***\nfooter",
			want: "body",
		},
		{
			name: "case insensitive",
			text: "h\n*** start of this project gutenberg ebook x ***\nbody\n*** end of this project gutenberg ebook x ***\nf",
			want: "body",
		},
		{
			name: "older compact banner",
			text: "h\n***START OF THE PROJECT GUTENBERG EBOOK X ***\nbody\n***END OF THE PROJECT GUTENBERG EBOOK X ***\nf",
			want: "body",
		},
		{
			name: "bare fallback marker",
			text: "h START OF THIS PROJECT GUTENBERG EBOOK\nbody\nEND OF THIS PROJECT GUTENBERG EBOOK f",
			want: "body",
		},
		{
			name: "end before start keeps tail",
			text: "END OF THIS PROJECT GUTENBERG EBOOK\n*** START OF THIS PROJECT GUTENBERG EBOOK X ***\ntail",
			want: "tail",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Strip(tt.text))
		})
	}
}

func TestStripFirstPatternWins(t *testing.T) {
	m, err := Compile([]string{`BEGIN-B`, `BEGIN-A`}, nil)
	require.NoError(t, err)

	// BEGIN-A appears first in the text, but BEGIN-B is first in the list.
	got := m.Strip("x BEGIN-A one BEGIN-B two")
	assert.Equal(t, "two", got)
}

func TestCompileRejectsBadPattern(t *testing.T) {
	_, err := Compile([]string{`(`}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start markers")
}

func TestLoadMarkers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "markers.yaml")
	content := "start:\n  - '==BEGIN=='\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadMarkers(path)
	require.NoError(t, err)
	require.Len(t, m.Start, 1)
	assert.Len(t, m.End, len(DefaultEndPatterns))

	text := "junk ==begin== body *** END OF THIS PROJECT GUTENBERG EBOOK X *** tail"
	assert.Equal(t, "body", m.Strip(text))
}

func TestLoadMarkersMissingFile(t *testing.T) {
	_, err := LoadMarkers(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "reading marker file"))
}
