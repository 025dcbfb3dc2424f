// Package scan enumerates candidate image files in a directory.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"sitepix/internal/imagecodec"
)

// ErrDirectoryNotFound is returned when the scan root is missing or is not a
// directory. Nothing has been touched when it is returned.
var ErrDirectoryNotFound = errors.New("directory not found")

// Sequence yields candidate paths in name order. Each range re-reads the
// directory, so a Sequence may be iterated again after files change.
type Sequence struct {
	root       string
	extensions map[string]struct{}
	readErr    error
}

// Dir validates root and returns a lazy Sequence over the regular files in it
// whose extension matches one of extensions (case-insensitive).
func Dir(root string, extensions []string) (*Sequence, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, root)
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, root)
	}

	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		if norm := imagecodec.NormalizeExt(ext); norm != "" {
			exts[norm] = struct{}{}
		}
	}
	return &Sequence{root: root, extensions: exts}, nil
}

// Root returns the scanned directory.
func (s *Sequence) Root() string {
	return s.root
}

// Paths returns an iterator over matching paths joined onto the root.
// A directory read failure ends the iteration early and is reported by Err.
func (s *Sequence) Paths() iter.Seq[string] {
	return func(yield func(string) bool) {
		s.readErr = nil
		entries, err := os.ReadDir(s.root)
		if err != nil {
			s.readErr = fmt.Errorf("read %s: %w", s.root, err)
			return
		}
		slices.SortFunc(entries, func(a, b fs.DirEntry) int {
			return strings.Compare(a.Name(), b.Name())
		})
		for _, entry := range entries {
			if !s.Matches(entry) {
				continue
			}
			if !yield(filepath.Join(s.root, entry.Name())) {
				return
			}
		}
	}
}

// Collect drains the sequence into a slice.
func (s *Sequence) Collect() ([]string, error) {
	paths := slices.Collect(s.Paths())
	return paths, s.Err()
}

// Err reports a read failure from the most recent iteration.
func (s *Sequence) Err() error {
	return s.readErr
}

// Matches reports whether entry would be yielded by the sequence.
func (s *Sequence) Matches(entry fs.DirEntry) bool {
	if !entry.Type().IsRegular() {
		return false
	}
	return s.MatchesName(entry.Name())
}

// MatchesName applies the dot-file and extension filters to a bare name.
func (s *Sequence) MatchesName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	_, ok := s.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
