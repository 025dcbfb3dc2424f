package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	dst := filepath.Join(dir, "archive", "photo.png")
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatal(err)
	}

	content := []byte("verified copy content")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}

	same, err := SameContent(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if !same {
		t.Fatal("expected identical content after verified copy")
	}
	assertNoTempFiles(t, filepath.Dir(dst))
}

func TestCopyFileVerified_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFileVerified(filepath.Join(dir, "nonexistent"), filepath.Join(dir, "dst.bin"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "dst.bin")); !os.IsNotExist(statErr) {
		t.Fatalf("expected no destination file, stat err = %v", statErr)
	}
}

func TestTempFilePromoteReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "photo.webp")
	if err := os.WriteFile(target, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}

	tmp, err := CreateTemp(target)
	if err != nil {
		t.Fatal(err)
	}
	if !IsTempName(tmp.Path()) {
		t.Fatalf("temp name %q not recognised", tmp.Path())
	}
	if filepath.Dir(tmp.Path()) != dir {
		t.Fatalf("temp file created outside target dir: %s", tmp.Path())
	}
	if _, err := tmp.Write([]byte("new content")); err != nil {
		t.Fatal(err)
	}
	size, err := tmp.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != int64(len("new content")) {
		t.Fatalf("size = %d", size)
	}
	if err := tmp.Promote(target); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Discard(); err != nil {
		t.Fatalf("discard after promote: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new content" {
		t.Fatalf("target content = %q", got)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode carried over, got %o", info.Mode().Perm())
	}
	if err := tmp.Promote(target); !errors.Is(err, ErrAlreadyPromoted) {
		t.Fatalf("expected ErrAlreadyPromoted, got %v", err)
	}
	assertNoTempFiles(t, dir)
}

func TestTempFileDiscardLeavesTargetUntouched(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "photo.webp")
	if err := os.WriteFile(target, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	tmp, err := CreateTemp(target)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmp.Write([]byte("attempt")); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Discard(); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Discard(); err != nil {
		t.Fatalf("second discard: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "original" {
		t.Fatalf("target modified: %q", got)
	}
	assertNoTempFiles(t, dir)
}

func TestWriteAtomicFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "photo.webp")
	if err := os.WriteFile(target, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("encode failed")
	_, err := WriteAtomic(target, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected encode error, got %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "original" {
		t.Fatalf("target modified on failure: %q", got)
	}
	assertNoTempFiles(t, dir)

	size, err := WriteAtomic(target, func(w io.Writer) error {
		_, err := w.Write([]byte("replacement"))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if size != int64(len("replacement")) {
		t.Fatalf("size = %d", size)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if IsTempName(entry.Name()) {
			t.Fatalf("leftover temp file %s", entry.Name())
		}
	}
}

func TestSameContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	if err := os.WriteFile(a, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	same, err := SameContent(a, b)
	if err != nil || same {
		t.Fatalf("missing destination: same=%v err=%v", same, err)
	}
	if err := os.WriteFile(b, []byte("abd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if same, _ := SameContent(a, b); same {
		t.Fatal("different bytes reported equal")
	}
	if err := os.WriteFile(b, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	if same, _ := SameContent(a, b); !same {
		t.Fatal("equal bytes reported different")
	}
	if _, err := SameContent(filepath.Join(dir, "missing"), b); err == nil {
		t.Fatal("expected error for missing source")
	}
}
