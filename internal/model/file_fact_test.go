package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewFileFact(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		path     string
		wantName string
		wantExt  string
	}{
		{"simple", "/downloads/invoice.pdf", "invoice.pdf", "pdf"},
		{"uppercase extension lowered", "/downloads/PHOTO.JPG", "PHOTO.JPG", "jpg"},
		{"no extension", "/downloads/README", "README", ""},
		{"dotfile", "/home/user/.bashrc", ".bashrc", "bashrc"},
		{"multiple dots", "/downloads/backup.tar.gz", "backup.tar.gz", "gz"},
		{"trailing dot", "/downloads/weird.", "weird.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fact := NewFileFact(tt.path, 100, now, now, now)
			assert.Equal(t, tt.wantName, fact.Name)
			assert.Equal(t, tt.wantExt, fact.Extension)
			assert.Equal(t, tt.path, fact.Path)
			assert.Equal(t, int64(100), fact.Size)
		})
	}
}
