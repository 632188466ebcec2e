//go:build mage

package main

import "github.com/magefile/mage/sh"

// Discover prints the PDF links found on the configured listing page.
func Discover() error {
	if err := ensureBuilt(); err != nil {
		return err
	}
	return sh.RunV(binPath(), "discover")
}

// Download fetches the first discovered PDFs into the download directory.
func Download() error {
	if err := ensureBuilt(); err != nil {
		return err
	}
	return sh.RunV(binPath(), "fetch", "--verbose")
}
