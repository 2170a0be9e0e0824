//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Harvest downloads books into gutenberg_data. Set BOOKS to change the
// count (default 100).
func Harvest() error {
	mg.Deps(Build, Init)
	args := []string{"--output-dir", dataDir}
	if n := os.Getenv("BOOKS"); n != "" {
		args = append(args, "--num-books", n)
	}
	return sh.RunV(filepath.Join(binDir, "gutenberg-harvest"), args...)
}

// Publish uploads harvested books to the InvenioRDM instance in
// INVENIO_PUBLISH_BASE_URL (default https://127.0.0.1:5000).
func Publish() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, "invenio-publish"), "--data-dir", dataDir)
}

// Update refreshes metadata of Gutenberg records already on the instance.
func Update() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, "invenio-publish"), "--data-dir", dataDir, "--update")
}
