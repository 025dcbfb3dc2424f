package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// TempSuffix marks in-flight files so scans and watchers can ignore them.
const TempSuffix = ".tmp"

// ErrAlreadyPromoted is returned when a promoted temp file is written again.
var ErrAlreadyPromoted = errors.New("temp file already promoted")

// TempFile is a hidden sibling of a target path. Its content only becomes
// visible under the target name through Promote, which is a single rename on
// the same filesystem. Discard is safe to defer on every exit path.
type TempFile struct {
	file     *os.File
	path     string
	closed   bool
	promoted bool
}

// CreateTemp opens a temp file in the directory of target, named
// ".<base>.<random>.tmp".
func CreateTemp(target string) (*TempFile, error) {
	dir := filepath.Dir(target)
	pattern := "." + filepath.Base(target) + ".*" + TempSuffix
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &TempFile{file: f, path: f.Name()}, nil
}

// IsTempName reports whether name looks like a file produced by CreateTemp.
func IsTempName(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") && strings.HasSuffix(base, TempSuffix)
}

// Path returns the on-disk location of the temp file.
func (t *TempFile) Path() string {
	return t.path
}

func (t *TempFile) Write(p []byte) (int, error) {
	if t.promoted {
		return 0, ErrAlreadyPromoted
	}
	if t.closed {
		return 0, os.ErrClosed
	}
	return t.file.Write(p)
}

// Close flushes and closes the temp file without removing it.
func (t *TempFile) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	syncErr := t.file.Sync()
	closeErr := t.file.Close()
	if syncErr != nil {
		return fmt.Errorf("sync temp file: %w", syncErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close temp file: %w", closeErr)
	}
	return nil
}

// Size closes the file and returns its size on disk.
func (t *TempFile) Size() (int64, error) {
	if err := t.Close(); err != nil {
		return 0, err
	}
	info, err := os.Stat(t.path)
	if err != nil {
		return 0, fmt.Errorf("stat temp file: %w", err)
	}
	return info.Size(), nil
}

// Promote renames the temp file onto dst. The permission bits of an existing
// dst are carried over; a new dst gets 0o644.
func (t *TempFile) Promote(dst string) error {
	if t.promoted {
		return ErrAlreadyPromoted
	}
	if err := t.Close(); err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(dst); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(t.path, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(t.path, dst); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(dst), err)
	}
	t.promoted = true
	return nil
}

// Discard closes and removes the temp file. It is a no-op after Promote.
func (t *TempFile) Discard() error {
	if t.promoted {
		return nil
	}
	_ = t.Close()
	if err := os.Remove(t.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove temp file: %w", err)
	}
	return nil
}

// WriteAtomic streams write into a temp sibling of dst and promotes it when
// write succeeds. It returns the size of the promoted file.
func WriteAtomic(dst string, write func(io.Writer) error) (int64, error) {
	tmp, err := CreateTemp(dst)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tmp.Discard()
	}()

	if err := write(tmp); err != nil {
		return 0, err
	}
	size, err := tmp.Size()
	if err != nil {
		return 0, err
	}
	if err := tmp.Promote(dst); err != nil {
		return 0, err
	}
	return size, nil
}
