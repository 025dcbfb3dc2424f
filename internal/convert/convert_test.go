package convert_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"sitepix/internal/convert"
	"sitepix/internal/imagecodec"
	"sitepix/internal/outcome"
	"sitepix/internal/testsupport"
)

type recordingEncoder struct {
	img     image.Image
	quality int
	err     error
}

func (r *recordingEncoder) Format() imagecodec.Format { return imagecodec.FormatWebP }

func (r *recordingEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	r.img = img
	r.quality = quality
	if r.err != nil {
		return r.err
	}
	_, err := w.Write([]byte("converted"))
	return err
}

func fastOptions(t *testing.T) convert.Options {
	t.Helper()
	opts := convert.DefaultOptions()
	opts.WebPMethod = 0
	prepared, err := opts.Prepare()
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return prepared
}

func TestConvertPNGToWebP(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "team.png")
	testsupport.WritePNG(t, src, testsupport.GradientImage(64, 48))

	res := convert.File(src, fastOptions(t))

	if res.Kind != outcome.KindConverted {
		t.Fatalf("expected converted, got %s (%v)", res.Kind, res.Err)
	}
	target := filepath.Join(dir, "team.webp")
	if res.Target != target || res.Quality != 85 {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source should be removed, stat err = %v", err)
	}
	img, err := imagecodec.Decode(target)
	if err != nil {
		t.Fatalf("decode target: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Fatalf("unexpected target bounds %v", img.Bounds())
	}
}

func TestConvertFlattensTransparency(t *testing.T) {
	for name, img := range map[string]image.Image{
		"alpha":   testsupport.TransparentImage(8, 4),
		"palette": testsupport.PalettedImage(8, 4),
	} {
		t.Run(name, func(t *testing.T) {
			src := filepath.Join(t.TempDir(), name+".png")
			testsupport.WritePNG(t, src, img)

			enc := &recordingEncoder{}
			opts := convert.DefaultOptions()
			opts.Encoder = enc
			res := convert.File(src, opts)
			if res.Kind != outcome.KindConverted {
				t.Fatalf("expected converted, got %s (%v)", res.Kind, res.Err)
			}
			if imagecodec.ColorModeOf(enc.img) != imagecodec.ModeOpaque {
				t.Fatalf("encoder received non-opaque image (%s)", imagecodec.ColorModeOf(enc.img))
			}
			// (1,0) was transparent in both fixtures.
			r, g, b, a := enc.img.At(1, 0).RGBA()
			if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
				t.Fatalf("expected white background, got %v", enc.img.At(1, 0))
			}
		})
	}
}

func TestConvertCustomBackground(t *testing.T) {
	src := filepath.Join(t.TempDir(), "logo.png")
	testsupport.WritePNG(t, src, testsupport.TransparentImage(4, 2))

	enc := &recordingEncoder{}
	opts := convert.DefaultOptions()
	opts.Encoder = enc
	opts.Background = color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}
	if res := convert.File(src, opts); res.Kind != outcome.KindConverted {
		t.Fatalf("expected converted, got %s (%v)", res.Kind, res.Err)
	}
	got := color.NRGBAModel.Convert(enc.img.At(0, 0)).(color.NRGBA)
	if got != (color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}) {
		t.Fatalf("background = %v", got)
	}
}

func TestConvertFailureKeepsSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.jpg")
	testsupport.WritePNG(t, src, testsupport.GradientImage(16, 16))
	before := testsupport.ReadFile(t, src)

	opts := convert.DefaultOptions()
	opts.Encoder = &recordingEncoder{err: imagecodec.ErrEncode}
	res := convert.File(src, opts)

	if res.Kind != outcome.KindFailed || !errors.Is(res.Err, imagecodec.ErrEncode) {
		t.Fatalf("expected encode failure, got %s (%v)", res.Kind, res.Err)
	}
	if !bytes.Equal(testsupport.ReadFile(t, src), before) {
		t.Fatal("source modified after failure")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the source to remain, got %d entries", len(entries))
	}
}

func TestConvertCorruptSourceFails(t *testing.T) {
	src := filepath.Join(t.TempDir(), "broken.gif")
	testsupport.WriteFile(t, src, 512)

	res := convert.File(src, convert.DefaultOptions())
	if res.Kind != outcome.KindFailed || !errors.Is(res.Err, imagecodec.ErrDecode) {
		t.Fatalf("expected decode failure, got %s (%v)", res.Kind, res.Err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source should remain: %v", err)
	}
}

func TestConvertReplacesExistingTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hero.png")
	target := filepath.Join(dir, "hero.webp")
	testsupport.WritePNG(t, src, testsupport.GradientImage(8, 8))
	testsupport.WriteFile(t, target, 64)

	opts := convert.DefaultOptions()
	opts.Encoder = &recordingEncoder{}
	if res := convert.File(src, opts); res.Kind != outcome.KindConverted {
		t.Fatalf("expected converted, got %s (%v)", res.Kind, res.Err)
	}
	if got := string(testsupport.ReadFile(t, target)); got != "converted" {
		t.Fatalf("target not replaced, got %q", got)
	}
}

func TestConvertArchivesSource(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(t.TempDir(), "originals")
	src := filepath.Join(dir, "member.jpeg")
	testsupport.WritePNG(t, src, testsupport.GradientImage(8, 8))
	before := testsupport.ReadFile(t, src)

	opts := convert.DefaultOptions()
	opts.Encoder = &recordingEncoder{}
	opts.ArchiveDir = archive
	if res := convert.File(src, opts); res.Kind != outcome.KindConverted {
		t.Fatalf("expected converted, got %s (%v)", res.Kind, res.Err)
	}
	if !bytes.Equal(testsupport.ReadFile(t, filepath.Join(archive, "member.jpeg")), before) {
		t.Fatal("archived copy differs from source")
	}
}

func TestConvertRefusesSameStemSources(t *testing.T) {
	dir := t.TempDir()
	jpg := filepath.Join(dir, "photo.jpg")
	png := filepath.Join(dir, "photo.png")
	testsupport.WritePNG(t, jpg, testsupport.GradientImage(8, 8))
	testsupport.WritePNG(t, png, testsupport.NoiseImage(8, 8, 3))

	opts := convert.DefaultOptions()
	opts.Encoder = &recordingEncoder{}
	for _, src := range []string{jpg, png} {
		res := convert.File(src, opts)
		if res.Kind != outcome.KindFailed || !errors.Is(res.Err, convert.ErrTargetCollision) {
			t.Fatalf("%s: expected collision failure, got %s (%v)", filepath.Base(src), res.Kind, res.Err)
		}
		if _, err := os.Stat(src); err != nil {
			t.Fatalf("source should remain: %v", err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "photo.webp")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no target should be written, stat err %v", err)
	}
}

func TestConvertIgnoresSameStemOutsideSourceExtensions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	testsupport.WritePNG(t, src, testsupport.GradientImage(8, 8))
	testsupport.WritePNG(t, filepath.Join(dir, "photo.jpg"), testsupport.GradientImage(8, 8))

	opts := convert.DefaultOptions()
	opts.Encoder = &recordingEncoder{}
	opts.SourceExtensions = []string{".png"}
	if res := convert.File(src, opts); res.Kind != outcome.KindConverted {
		t.Fatalf("expected converted, got %s (%v)", res.Kind, res.Err)
	}
}

func TestConvertSourceAlreadyTarget(t *testing.T) {
	src := filepath.Join(t.TempDir(), "done.webp")
	testsupport.WriteFile(t, src, 128)

	res := convert.File(src, convert.DefaultOptions())
	if res.Kind != outcome.KindUnchanged {
		t.Fatalf("expected unchanged, got %s (%v)", res.Kind, res.Err)
	}
}

func TestTargetPath(t *testing.T) {
	if got := convert.TargetPath("/a/b/photo.JPG", imagecodec.FormatWebP); got != "/a/b/photo.webp" {
		t.Fatalf("TargetPath = %q", got)
	}
	if got := convert.TargetPath("/a/b/photo.png", imagecodec.FormatJPEG); got != "/a/b/photo.jpg" {
		t.Fatalf("TargetPath = %q", got)
	}
}
