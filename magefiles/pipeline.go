//go:build mage

package main

import "github.com/magefile/mage/sh"

// Chunk turns the PDFs already in the download directory into russco_chunks.json
// without touching the network.
func Chunk() error {
	if err := ensureBuilt(); err != nil {
		return err
	}
	return sh.RunV(binPath(), "run", "--offline")
}

// Pipeline runs discovery, downloads, and chunking, indexing the result.
func Pipeline() error {
	if err := ensureBuilt(); err != nil {
		return err
	}
	return sh.RunV(binPath(), "run", "--index", "index/chunks.db")
}
