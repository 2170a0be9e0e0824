// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textclean removes the Project Gutenberg licence banners that
// surround the body of a plain-text ebook.
//
// Banners vary across eras of transcription, so each side is an ordered list
// of patterns. The first pattern that matches wins; start and end are
// resolved independently.
package textclean

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"
)

// DefaultStartPatterns are tried in order to find the end of the header.
var DefaultStartPatterns = []string{
	`\*\*\* START OF THIS PROJECT GUTENBERG EBOOK .+ \*\*\*`,
	`\*\*\*START OF THE PROJECT GUTENBERG EBOOK .+ \*\*\*`,
	`START OF THIS PROJECT GUTENBERG EBOOK`,
}

// DefaultEndPatterns are tried in order to find the start of the footer.
var DefaultEndPatterns = []string{
	`\*\*\* END OF THIS PROJECT GUTENBERG EBOOK .+ \*\*\*`,
	`\*\*\*END OF THE PROJECT GUTENBERG EBOOK .+ \*\*\*`,
	`END OF THIS PROJECT GUTENBERG EBOOK`,
}

// Markers is an ordered set of start and end banner patterns.
type Markers struct {
	Start []*regexp.Regexp
	End   []*regexp.Regexp
}

// MarkerFile is the YAML shape accepted by LoadMarkers.
type MarkerFile struct {
	Start []string `yaml:"start"`
	End   []string `yaml:"end"`
}

// Compile builds case-insensitive Markers from pattern strings.
func Compile(start, end []string) (Markers, error) {
	var m Markers
	var err error
	if m.Start, err = compileAll(start); err != nil {
		return Markers{}, fmt.Errorf("start markers: %w", err)
	}
	if m.End, err = compileAll(end); err != nil {
		return Markers{}, fmt.Errorf("end markers: %w", err)
	}
	return m, nil
}

// Default returns the built-in marker set.
func Default() Markers {
	m, err := Compile(DefaultStartPatterns, DefaultEndPatterns)
	if err != nil {
		panic(err)
	}
	return m
}

// LoadMarkers reads a YAML marker file. A side left empty in the file keeps
// the default patterns for that side.
func LoadMarkers(path string) (Markers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Markers{}, fmt.Errorf("reading marker file: %w", err)
	}
	var f MarkerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Markers{}, fmt.Errorf("parsing marker file %s: %w", path, err)
	}
	if len(f.Start) == 0 {
		f.Start = DefaultStartPatterns
	}
	if len(f.End) == 0 {
		f.End = DefaultEndPatterns
	}
	return Compile(f.Start, f.End)
}

// Strip returns the trimmed text between the resolved start and end
// offsets. Without a start match the text begins at offset 0; without an
// end match it runs to the end.
func (m Markers) Strip(text string) string {
	start := 0
	if loc := firstMatch(m.Start, text); loc != nil {
		start = loc[1]
	}
	end := len(text)
	if loc := firstMatch(m.End, text); loc != nil {
		end = loc[0]
	}
	if end < start {
		end = len(text)
	}
	return strings.TrimSpace(text[start:end])
}

func firstMatch(patterns []*regexp.Regexp, text string) []int {
	for _, re := range patterns {
		if loc := re.FindStringIndex(text); loc != nil {
			return loc
		}
	}
	return nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compiling %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
