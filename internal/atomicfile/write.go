// Package atomicfile writes output files so that a reader never observes a
// half-written avatar, preset file or cached font.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write replaces path with data in one rename. Missing parent directories are
// created, so an output such as out/avatars/nord.png needs no setup. On error
// path keeps its previous contents and no temp file is left in its directory.
func Write(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	tmp, err := stage(dir, filepath.Base(path), data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// stage writes data to a synced sibling of name in dir carrying perm and
// returns its path. The staged file is removed if any step fails.
func stage(dir, name string, data []byte, perm os.FileMode) (string, error) {
	f, err := os.CreateTemp(dir, name+".tmp.*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp, perm)
	}
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	return tmp, nil
}
