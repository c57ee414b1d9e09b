package formats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Faultbox/terragen/pkg/errs"
)

// writeFileAtomic streams encode into a temporary file next to path and
// renames it over path once everything is flushed to disk.
func writeFileAtomic(path string, encode func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file for %s: %w", errs.ErrIO, path, err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err = encode(tmp); err != nil {
		return fmt.Errorf("%w: writing %s: %w", errs.ErrIO, path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: syncing %s: %w", errs.ErrIO, path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", errs.ErrIO, path, err)
	}
	if err = os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", errs.ErrIO, path, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: renaming into %s: %w", errs.ErrIO, path, err)
	}
	return nil
}
