// Package emit writes generated sources into the build directory.
package emit

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/conduit-lang/foundry/pkg/device"
	ferrors "github.com/conduit-lang/foundry/pkg/errors"
)

// Dir is the build directory. Writes are atomic and skip files whose content
// is unchanged, so regenerating is idempotent. In dry-run mode nothing touches
// the disk.
type Dir struct {
	root    string
	dryRun  bool
	log     *zap.Logger
	written map[string]bool
}

var _ device.FileSystem = (*Dir)(nil)

// NewDir creates a Dir rooted at root.
func NewDir(root string, dryRun bool, log *zap.Logger) *Dir {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dir{root: root, dryRun: dryRun, log: log, written: make(map[string]bool)}
}

// Root returns the directory path.
func (d *Dir) Root() string { return d.root }

// DryRun reports whether writes are suppressed.
func (d *Dir) DryRun() bool { return d.dryRun }

// Path returns the on-disk path of name.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(name))
}

// WriteFile writes data to name, creating parent directories.
func (d *Dir) WriteFile(name string, data []byte) error {
	path := d.Path(name)
	d.written[name] = true
	if d.dryRun {
		d.log.Info("would write", zap.String("file", path), zap.Int("bytes", len(data)))
		return nil
	}

	if cur, err := os.ReadFile(path); err == nil && bytes.Equal(cur, data) {
		d.log.Debug("unchanged", zap.String("file", path))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return ferrors.IO("create directory", filepath.Dir(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return ferrors.IO("write", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return ferrors.IO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return ferrors.IO("write", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return ferrors.IO("write", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return ferrors.IO("write", path, err)
	}
	d.log.Debug("wrote", zap.String("file", path))
	return nil
}

// ReadFile reads name.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(d.Path(name))
	if err != nil {
		return nil, ferrors.IO("read", d.Path(name), err)
	}
	return data, nil
}

// Remove deletes name. A missing file is not an error.
func (d *Dir) Remove(name string) error {
	path := d.Path(name)
	if d.dryRun {
		d.log.Info("would remove", zap.String("file", path))
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ferrors.IO("remove", path, err)
	}
	return nil
}

// Exists reports whether name exists.
func (d *Dir) Exists(name string) bool {
	_, err := os.Stat(d.Path(name))
	return err == nil
}

// Written lists every file written so far, sorted.
func (d *Dir) Written() []string {
	out := make([]string, 0, len(d.written))
	for name := range d.written {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
