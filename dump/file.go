package dump

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/INLOpen/tombstones/core"
	"github.com/INLOpen/tombstones/rangetombstone"
)

const tempSuffix = ".tmp"

// WriteFile writes list to path using write-and-rename: the dump goes to a
// temporary file in the same directory, which is synced, closed and renamed
// over path. A failed write leaves any previous file at path untouched.
func WriteFile(path string, list *rangetombstone.List, opts Options) error {
	tempPath := path + tempSuffix
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp dump file: %w", err)
	}

	if err := Write(file, list, opts); err != nil {
		file.Close()
		os.Remove(tempPath)
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync temp dump file: %w", err)
	}
	// Close before renaming, Windows refuses to rename open files.
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp dump file before rename: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp dump file to %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadFile reads the dump stored at path.
func ReadFile(path string, cmp core.Comparator) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump file: %w", err)
	}
	defer file.Close()

	f, err := Read(file, cmp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
