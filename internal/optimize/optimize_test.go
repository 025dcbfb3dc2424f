package optimize_test

import (
	"bytes"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"sitepix/internal/imagecodec"
	"sitepix/internal/optimize"
	"sitepix/internal/outcome"
	"sitepix/internal/testsupport"
)

// fakeEncoder emits width*height*quality/300 bytes so sizes are predictable:
// 800x600 yields 125 KB at q80, 109 KB at q70 and 93.75 KB at q60.
type fakeEncoder struct {
	format    imagecodec.Format
	qualities []int
	sizes     []image.Point
	err       error
}

func (f *fakeEncoder) Format() imagecodec.Format { return f.format }

func (f *fakeEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	f.qualities = append(f.qualities, quality)
	b := img.Bounds()
	f.sizes = append(f.sizes, b.Size())
	if f.err != nil {
		return f.err
	}
	n := b.Dx() * b.Dy() * quality / 300
	_, err := w.Write(bytes.Repeat([]byte{0x5a}, n))
	return err
}

func newFakeOptimizer(t *testing.T, policy optimize.SizePolicy, enc *fakeEncoder) *optimize.Optimizer {
	t.Helper()
	opt, err := optimize.New(policy, optimize.WithEncoderFactory(func(f imagecodec.Format) (imagecodec.Encoder, error) {
		enc.format = f
		return enc, nil
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return opt
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if entry.Name()[0] == '.' {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestOversizedPhotoIsResampledAndOptimized(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.webp")
	testsupport.WritePNG(t, path, testsupport.NoiseImage(1200, 900, 1))

	enc := &fakeEncoder{}
	res := newFakeOptimizer(t, optimize.DefaultPolicy(), enc).File(path)

	if res.Kind != outcome.KindOptimized {
		t.Fatalf("expected optimized, got %s (%v)", res.Kind, res.Err)
	}
	if res.Width != 800 || res.Height != 600 || !res.Resized {
		t.Fatalf("expected 800x600 resample, got %dx%d resized=%v", res.Width, res.Height, res.Resized)
	}
	if res.Quality != 60 {
		t.Fatalf("expected quality 60, got %d", res.Quality)
	}
	if want := []int{80, 70, 60}; !slices.Equal(enc.qualities, want) {
		t.Fatalf("qualities tried %v, want %v", enc.qualities, want)
	}
	for _, size := range enc.sizes {
		if size != image.Pt(800, 600) {
			t.Fatalf("every attempt should encode the resampled image, got %v", size)
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != res.Size || res.Size > 100*1024 {
		t.Fatalf("on-disk size %d, result size %d", info.Size(), res.Size)
	}
	assertNoTempFiles(t, dir)
}

func TestCompliantAssetIsNotOpened(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icon.webp")
	want := testsupport.WriteFile(t, path, 20*1024)

	enc := &fakeEncoder{}
	res := newFakeOptimizer(t, optimize.DefaultPolicy(), enc).File(path)

	if res.Kind != outcome.KindUnchanged {
		t.Fatalf("expected unchanged, got %s (%v)", res.Kind, res.Err)
	}
	if len(enc.qualities) != 0 {
		t.Fatalf("encoder should not run, got %v", enc.qualities)
	}
	if got := testsupport.ReadFile(t, path); !bytes.Equal(got, want) {
		t.Fatal("compliant asset was modified")
	}
}

func TestBudgetBoundaryIsInclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edge.webp")
	testsupport.WriteFile(t, path, 100*1024)

	res := newFakeOptimizer(t, optimize.DefaultPolicy(), &fakeEncoder{}).File(path)
	if res.Kind != outcome.KindUnchanged {
		t.Fatalf("a file exactly at the budget is compliant, got %s", res.Kind)
	}
}

func TestUnreachableBudgetLeavesOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "huge.webp")
	testsupport.WritePNG(t, path, testsupport.NoiseImage(1200, 900, 2))
	before := testsupport.ReadFile(t, path)

	policy := optimize.DefaultPolicy()
	policy.MaxSizeKB = 10
	enc := &fakeEncoder{}
	res := newFakeOptimizer(t, policy, enc).File(path)

	if res.Kind != outcome.KindFailed || !errors.Is(res.Err, optimize.ErrBudgetUnreachable) {
		t.Fatalf("expected budget failure, got %s (%v)", res.Kind, res.Err)
	}
	if want := []int{80, 70, 60, 50, 40}; !slices.Equal(enc.qualities, want) {
		t.Fatalf("qualities tried %v, want %v", enc.qualities, want)
	}
	if !bytes.Equal(testsupport.ReadFile(t, path), before) {
		t.Fatal("original changed after failed search")
	}
	assertNoTempFiles(t, dir)
}

func TestSecondPassIsUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.webp")
	testsupport.WritePNG(t, path, testsupport.NoiseImage(1200, 900, 3))

	opt := newFakeOptimizer(t, optimize.DefaultPolicy(), &fakeEncoder{})
	if res := opt.File(path); res.Kind != outcome.KindOptimized {
		t.Fatalf("first pass: %s (%v)", res.Kind, res.Err)
	}
	after := testsupport.ReadFile(t, path)
	if res := opt.File(path); res.Kind != outcome.KindUnchanged {
		t.Fatalf("second pass: %s", res.Kind)
	}
	if !bytes.Equal(testsupport.ReadFile(t, path), after) {
		t.Fatal("second pass modified the file")
	}
}

func TestEncoderFailureIsIsolated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.webp")
	testsupport.WritePNG(t, path, testsupport.NoiseImage(300, 300, 4))
	before := testsupport.ReadFile(t, path)

	policy := optimize.DefaultPolicy()
	policy.MaxSizeKB = 1
	enc := &fakeEncoder{err: imagecodec.ErrEncode}
	res := newFakeOptimizer(t, policy, enc).File(path)

	if res.Kind != outcome.KindFailed || !errors.Is(res.Err, imagecodec.ErrEncode) {
		t.Fatalf("expected encode failure, got %s (%v)", res.Kind, res.Err)
	}
	var assetErr *imagecodec.AssetError
	if !errors.As(res.Err, &assetErr) || assetErr.Path != path {
		t.Fatalf("expected AssetError for %s, got %v", path, res.Err)
	}
	if len(enc.qualities) != 1 {
		t.Fatalf("search should stop on encoder error, tried %v", enc.qualities)
	}
	if !bytes.Equal(testsupport.ReadFile(t, path), before) {
		t.Fatal("original changed after encoder failure")
	}
	assertNoTempFiles(t, dir)
}

func TestUndecodableAssetFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.webp")
	testsupport.WriteFile(t, path, 200*1024)

	res := newFakeOptimizer(t, optimize.DefaultPolicy(), &fakeEncoder{}).File(path)
	if res.Kind != outcome.KindFailed || !errors.Is(res.Err, imagecodec.ErrDecode) {
		t.Fatalf("expected decode failure, got %s (%v)", res.Kind, res.Err)
	}
}

func TestMissingFileFails(t *testing.T) {
	res := newFakeOptimizer(t, optimize.DefaultPolicy(), &fakeEncoder{}).File(filepath.Join(t.TempDir(), "gone.webp"))
	if res.Kind != outcome.KindFailed || !errors.Is(res.Err, os.ErrNotExist) {
		t.Fatalf("expected not-exist failure, got %s (%v)", res.Kind, res.Err)
	}
}

func TestSmallImageIsNotResampled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "square.jpg")
	testsupport.WritePNG(t, path, testsupport.NoiseImage(500, 500, 5))

	policy := optimize.DefaultPolicy()
	policy.MaxSizeKB = 70
	enc := &fakeEncoder{}
	res := newFakeOptimizer(t, policy, enc).File(path)

	// 500*500*80/300 = 66666 bytes fits at the first attempt.
	if res.Kind != outcome.KindOptimized || res.Resized || res.Quality != 80 {
		t.Fatalf("unexpected result %+v", res)
	}
	if enc.format != imagecodec.FormatJPEG {
		t.Fatalf("expected JPEG encoder for .jpg, got %s", enc.format)
	}
}

func TestRealCodecOptimizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strip.webp")
	testsupport.WritePNG(t, path, testsupport.NoiseImage(1000, 10, 6))

	policy := optimize.DefaultPolicy()
	policy.MaxSizeKB = 20
	opt, err := optimize.New(policy, optimize.WithWebPMethod(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := opt.File(path)
	if res.Kind != outcome.KindOptimized {
		t.Fatalf("expected optimized, got %s (%v)", res.Kind, res.Err)
	}
	img, err := imagecodec.Decode(path)
	if err != nil {
		t.Fatalf("optimized file should decode: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(800, 8) {
		t.Fatalf("decoded size %v, want 800x8", got)
	}
	head := testsupport.ReadFile(t, path)[:12]
	if string(head[0:4]) != "RIFF" || string(head[8:12]) != "WEBP" {
		t.Fatalf("expected WebP container, got %q", head)
	}
	assertNoTempFiles(t, dir)
}

func TestRealCodecNeverExceedsBudgetOrCorrupts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "noise.webp")
	testsupport.WritePNG(t, path, testsupport.NoiseImage(1200, 900, 7))
	before := testsupport.ReadFile(t, path)

	opt, err := optimize.New(optimize.DefaultPolicy(), optimize.WithWebPMethod(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := opt.File(path)
	switch res.Kind {
	case outcome.KindOptimized:
		if res.Size > 100*1024 {
			t.Fatalf("optimized size %d exceeds budget", res.Size)
		}
	case outcome.KindFailed:
		if !errors.Is(res.Err, optimize.ErrBudgetUnreachable) {
			t.Fatalf("unexpected failure: %v", res.Err)
		}
		if !bytes.Equal(testsupport.ReadFile(t, path), before) {
			t.Fatal("original changed after failed search")
		}
	default:
		t.Fatalf("unexpected kind %s", res.Kind)
	}
	assertNoTempFiles(t, dir)
}
