// Package model defines the core data structures for the tidy application.
package model

import (
	"path/filepath"
	"strings"
	"time"
)

// FileFact is an immutable snapshot of one file's metadata, supplied fresh
// per scan by the file-scanning collaborator. The suggestion pipeline never
// mutates it.
type FileFact struct {
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	AccessedAt time.Time `json:"accessed_at"`
	Name       string    `json:"name"`
	Extension  string    `json:"extension"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
}

// NewFileFact builds a FileFact from a path and stat-style metadata.
// The extension is stored lower-cased without the leading dot.
func NewFileFact(path string, size int64, created, modified, accessed time.Time) FileFact {
	name := filepath.Base(path)
	ext := strings.TrimPrefix(filepath.Ext(name), ".")

	return FileFact{
		Name:       name,
		Extension:  strings.ToLower(ext),
		Path:       path,
		Size:       size,
		CreatedAt:  created,
		ModifiedAt: modified,
		AccessedAt: accessed,
	}
}
