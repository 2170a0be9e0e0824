// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads the InvenioRDM bearer token from a plain-text file.
// The file contents, trimmed of surrounding whitespace, are the token.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultTokenFile is the token location relative to the working directory.
const DefaultTokenFile = ".api_token"

// ErrTokenMissing is returned when the token file is absent or empty.
var ErrTokenMissing = errors.New("API token missing")

// ReadToken returns the trimmed contents of the token file at path.
// A missing or blank file yields ErrTokenMissing; other read failures are
// returned wrapped.
func ReadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s not found", ErrTokenMissing, path)
		}
		return "", fmt.Errorf("reading token file %s: %w", path, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrTokenMissing, path)
	}
	return token, nil
}
