package build

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/booktypst/internal/errors"
)

// writeAtomic writes data next to path and renames it into place, so
// readers never observe a partially written file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.OutputWriteFailed(path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.OutputWriteFailed(path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.OutputWriteFailed(path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.OutputWriteFailed(path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return errors.OutputWriteFailed(path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return errors.OutputWriteFailed(path, err)
	}
	return nil
}
