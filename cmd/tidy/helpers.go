package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-files-must-flow/internal/config"
	"github.com/Veraticus/the-files-must-flow/internal/model"
	"github.com/Veraticus/the-files-must-flow/internal/storage"
)

// initStorage opens the configured database and ensures migrations have run.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	if dbPath == "" {
		var err error
		dbPath, err = config.DefaultDatabasePath()
		if err != nil {
			return nil, err
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// collectFileFacts builds FileFacts from path arguments. Directories are
// walked one level deep; hidden files are skipped.
func collectFileFacts(paths []string) ([]model.FileFact, error) {
	var facts []model.FileFact

	for _, path := range paths {
		expanded := config.ExpandPath(path)
		info, err := os.Stat(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if !info.IsDir() {
			facts = append(facts, fileFactFromInfo(expanded, info))
			continue
		}

		entries, err := os.ReadDir(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || entry.Name()[0] == '.' {
				continue
			}
			entryInfo, infoErr := entry.Info()
			if infoErr != nil {
				continue
			}
			facts = append(facts, fileFactFromInfo(filepath.Join(expanded, entry.Name()), entryInfo))
		}
	}

	return facts, nil
}

// fileFactFromInfo builds a FileFact from stat metadata. Creation and
// last-access times are not portably available, so modification time stands
// in for both; date conditions on those fields degrade gracefully.
func fileFactFromInfo(path string, info fs.FileInfo) model.FileFact {
	modTime := info.ModTime()
	return model.NewFileFact(path, info.Size(), modTime, modTime, modTime)
}
