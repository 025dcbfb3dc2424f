// Package variants writes responsive copies of an image at fixed bounding
// boxes (small, medium, large) for srcset markup.
package variants

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"sitepix/internal/fileutil"
	"sitepix/internal/imagecodec"
	"sitepix/internal/logging"
)

// Box is a named square bounding box.
type Box struct {
	Name string
	Size int
}

// DefaultBoxes returns the stock 480/768/1200 boxes.
func DefaultBoxes() []Box {
	return []Box{{"small", 480}, {"medium", 768}, {"large", 1200}}
}

// Options configures a Generator.
type Options struct {
	OutDir  string
	Boxes   []Box
	Quality int
	// Fallback is the output format for sources that cannot be re-encoded
	// in their own format (gif, bmp).
	Fallback   imagecodec.Format
	WebPMethod int
	Logger     *slog.Logger
}

// Variant describes one written copy.
type Variant struct {
	Source string
	Name   string
	Path   string
	Width  int
	Height int
	Size   int64
}

// Generator writes variants for individual sources.
type Generator struct {
	opts     Options
	encoders map[imagecodec.Format]imagecodec.Encoder
	logger   *slog.Logger
}

// New validates opts and returns a Generator.
func New(opts Options) (*Generator, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, errors.New("variants: output directory required")
	}
	if len(opts.Boxes) == 0 {
		opts.Boxes = DefaultBoxes()
	}
	for _, box := range opts.Boxes {
		if box.Size <= 0 || box.Name == "" {
			return nil, fmt.Errorf("variants: invalid box %+v", box)
		}
	}
	if opts.Quality <= 0 {
		opts.Quality = 85
	}
	if opts.Fallback == "" {
		opts.Fallback = imagecodec.FormatWebP
	}
	return &Generator{
		opts:     opts,
		encoders: make(map[imagecodec.Format]imagecodec.Encoder),
		logger:   logging.NewComponentLogger(opts.Logger, "variants"),
	}, nil
}

// OutputFormat returns the format variants of src are written in.
func (g *Generator) OutputFormat(src string) imagecodec.Format {
	if f, err := imagecodec.FormatFromPath(src); err == nil {
		return f
	}
	return g.opts.Fallback
}

// OutputPath returns name-<box>.<ext> inside the output directory.
func (g *Generator) OutputPath(src, box string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(g.opts.OutDir, base+"-"+box+g.OutputFormat(src).Ext())
}

// Generate decodes src once and writes one variant per box. Sources smaller
// than a box are copied at their own size, never upscaled.
func (g *Generator) Generate(src string) ([]Variant, error) {
	img, err := imagecodec.Decode(src)
	if err != nil {
		return nil, err
	}
	format := g.OutputFormat(src)
	enc, err := g.encoder(format)
	if err != nil {
		return nil, err
	}
	if format == imagecodec.FormatJPEG && imagecodec.ColorModeOf(img).NeedsFlatten() {
		img = imagecodec.Flatten(img, color.White)
	}
	if err := os.MkdirAll(g.opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create variants dir: %w", err)
	}

	out := make([]Variant, 0, len(g.opts.Boxes))
	for _, box := range g.opts.Boxes {
		fitted := imaging.Fit(img, box.Size, box.Size, imaging.Lanczos)
		dst := g.OutputPath(src, box.Name)
		size, err := fileutil.WriteAtomic(dst, func(w io.Writer) error {
			return enc.Encode(w, fitted, g.opts.Quality)
		})
		if err != nil {
			return out, &imagecodec.AssetError{Path: src, Op: "write " + box.Name, Err: err}
		}
		b := fitted.Bounds()
		out = append(out, Variant{
			Source: src,
			Name:   box.Name,
			Path:   dst,
			Width:  b.Dx(),
			Height: b.Dy(),
			Size:   size,
		})
		g.logger.Debug("variant written",
			logging.Path(dst),
			logging.Int("width", b.Dx()),
			logging.Int("height", b.Dy()),
		)
	}
	return out, nil
}

func (g *Generator) encoder(format imagecodec.Format) (imagecodec.Encoder, error) {
	if enc, ok := g.encoders[format]; ok {
		return enc, nil
	}
	enc, err := imagecodec.NewEncoder(format, imagecodec.Options{WebPMethod: g.opts.WebPMethod})
	if err != nil {
		return nil, err
	}
	g.encoders[format] = enc
	return enc, nil
}
