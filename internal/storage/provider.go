// Package storage defines the workspace file-system abstraction.
package storage

import "time"

// DocInfo describes one stored project document.
type DocInfo struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for workspace file operations.
type Provider interface {
	// List returns metadata for every .json document under dir (relative to
	// the workspace root).
	List(dir string) ([]DocInfo, error)
	// Read returns the raw bytes of the document at path (relative to the
	// workspace root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the workspace root).
	Write(path string, content []byte) error
	// Delete removes the document at path (relative to the workspace root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to the workspace root).
	Move(oldPath, newPath string) error
}
