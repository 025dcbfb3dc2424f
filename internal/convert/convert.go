// Package convert migrates legacy raster formats to the target format.
//
// A converted source is encoded once at a fixed quality, written atomically
// next to the original under the target extension, and then removed. Images
// with transparency are composited onto an opaque background first.
package convert

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sitepix/internal/fileutil"
	"sitepix/internal/imagecodec"
	"sitepix/internal/logging"
	"sitepix/internal/outcome"
)

// DefaultQuality is the fixed encoder quality for conversions.
const DefaultQuality = 85

// ErrTargetCollision marks a source that shares its target with another
// convertible file in the same directory.
var ErrTargetCollision = errors.New("another source converts to the same target")

// DefaultSourceExtensions are the legacy formats converted when none are
// configured.
var DefaultSourceExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp"}

// Options controls a conversion.
type Options struct {
	Target     imagecodec.Format
	Quality    int
	Background color.Color
	// ArchiveDir, when set, receives a verified copy of each source before
	// the source is removed.
	ArchiveDir string
	WebPMethod int
	// SourceExtensions lists the extensions that convert in this run. Two
	// of them sharing a stem would write the same target, so neither is
	// converted.
	SourceExtensions []string
	// Encoder overrides the codec chosen from Target.
	Encoder imagecodec.Encoder
	Logger  *slog.Logger
}

// DefaultOptions converts to WebP at quality 85 onto white.
func DefaultOptions() Options {
	return Options{
		Target:           imagecodec.FormatWebP,
		Quality:          DefaultQuality,
		Background:       color.White,
		WebPMethod:       imagecodec.DefaultWebPMethod,
		SourceExtensions: DefaultSourceExtensions,
	}
}

// TargetPath returns where path lands after conversion to format.
func TargetPath(path string, format imagecodec.Format) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + format.Ext()
}

// Prepare fills defaults and resolves the encoder so repeated File calls
// share one codec instance.
func (o Options) Prepare() (Options, error) {
	if o.Target == "" {
		o.Target = imagecodec.FormatWebP
	}
	if o.Quality <= 0 {
		o.Quality = DefaultQuality
	}
	if o.Background == nil {
		o.Background = color.White
	}
	if len(o.SourceExtensions) == 0 {
		o.SourceExtensions = DefaultSourceExtensions
	}
	if o.Encoder == nil {
		enc, err := imagecodec.NewEncoder(o.Target, imagecodec.Options{WebPMethod: o.WebPMethod})
		if err != nil {
			return o, err
		}
		o.Encoder = enc
	}
	o.Logger = logging.NewComponentLogger(o.Logger, "convert")
	return o, nil
}

// File converts one source. The source is removed only after the target has
// been written in full and, when configured, archived. On failure the source
// is left untouched and a Failed result is returned.
func File(path string, opts Options) outcome.Result {
	if opts.Encoder == nil || opts.Logger == nil {
		prepared, err := opts.Prepare()
		if err != nil {
			return outcome.Failed(outcome.StageConvert, path, 0, err)
		}
		opts = prepared
	}
	logger := opts.Logger.With(logging.Path(path))

	target := TargetPath(path, opts.Target)
	if target == path {
		info, err := os.Stat(path)
		if err != nil {
			return fail(logger, path, 0, &imagecodec.AssetError{Path: path, Op: "stat", Err: err})
		}
		return outcome.Unchanged(outcome.StageConvert, path, info.Size())
	}

	sibling, err := collidingSibling(path, opts.SourceExtensions)
	if err != nil {
		return fail(logger, path, 0, &imagecodec.AssetError{Path: path, Op: "list directory", Err: err})
	}
	if sibling != "" {
		return fail(logger, path, 0, &imagecodec.AssetError{
			Path: path,
			Op:   "convert",
			Err:  fmt.Errorf("%w: %s and %s both map to %s", ErrTargetCollision, filepath.Base(path), filepath.Base(sibling), filepath.Base(target)),
		})
	}

	asset, img, err := imagecodec.Load(path)
	if err != nil {
		return fail(logger, path, 0, err)
	}
	if asset.Mode.NeedsFlatten() {
		logger.Debug("flattening transparency", logging.String("mode", string(asset.Mode)))
		img = imagecodec.Flatten(img, opts.Background)
	}

	if opts.ArchiveDir != "" {
		if err := archive(path, opts.ArchiveDir); err != nil {
			return fail(logger, path, asset.Size, err)
		}
	}

	if _, err := os.Stat(target); err == nil {
		logger.Info("replacing existing target", logging.String("target", target))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fail(logger, path, asset.Size, &imagecodec.AssetError{Path: target, Op: "stat", Err: err})
	}

	size, err := fileutil.WriteAtomic(target, func(w io.Writer) error {
		return opts.Encoder.Encode(w, img, opts.Quality)
	})
	if err != nil {
		return fail(logger, path, asset.Size, &imagecodec.AssetError{Path: path, Op: "encode", Err: err})
	}

	if err := os.Remove(path); err != nil {
		return fail(logger, path, asset.Size, &imagecodec.AssetError{Path: path, Op: "remove source", Err: err})
	}

	logger.Info("converted",
		logging.String("target", target),
		logging.Int("quality", opts.Quality),
		logging.Int64("original_size", asset.Size),
		logging.Int64("size", size),
	)
	return outcome.Result{
		Stage:        outcome.StageConvert,
		Kind:         outcome.KindConverted,
		Path:         path,
		Target:       target,
		OriginalSize: asset.Size,
		Size:         size,
		Quality:      opts.Quality,
		Width:        asset.Width,
		Height:       asset.Height,
	}
}

// collidingSibling returns another file next to path with the same stem and
// a convertible extension, or "" when there is none.
func collidingSibling(path string, exts []string) (string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == base || entry.IsDir() {
			continue
		}
		ext := filepath.Ext(name)
		if strings.TrimSuffix(name, ext) != stem {
			continue
		}
		norm := imagecodec.NormalizeExt(ext)
		for _, want := range exts {
			if imagecodec.NormalizeExt(want) == norm {
				return filepath.Join(dir, name), nil
			}
		}
	}
	return "", nil
}

func archive(path, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	dst := filepath.Join(dir, filepath.Base(path))
	if err := fileutil.CopyFileVerified(path, dst); err != nil {
		return &imagecodec.AssetError{Path: path, Op: "archive", Err: err}
	}
	return nil
}

func fail(logger *slog.Logger, path string, size int64, err error) outcome.Result {
	logging.ErrorWithContext(logger, "convert failed", "convert_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "source kept in its original format"),
	)
	return outcome.Failed(outcome.StageConvert, path, size, err)
}
