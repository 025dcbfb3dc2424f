package imagecodec

import (
	"encoding/hex"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// ColorMode summarises how an image stores transparency.
type ColorMode string

const (
	ModeOpaque  ColorMode = "opaque"
	ModeAlpha   ColorMode = "alpha"
	ModePalette ColorMode = "palette"
	ModeGray    ColorMode = "gray"
)

// ColorModeOf classifies img. Paletted images count as palette even when no
// entry is transparent, matching how the converter decides to flatten.
func ColorModeOf(img image.Image) ColorMode {
	switch img.(type) {
	case *image.Paletted:
		return ModePalette
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.YCbCr, *image.CMYK:
		return ModeOpaque
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		if o.Opaque() {
			return ModeOpaque
		}
		return ModeAlpha
	}
	return ModeOpaque
}

// NeedsFlatten reports whether mode carries transparency that a flat target
// must drop.
func (m ColorMode) NeedsFlatten() bool {
	return m == ModeAlpha || m == ModePalette
}

// Flatten composites img over a solid background of the same size.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	bounds := img.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// ScaledSize returns the dimensions that fit width x height inside a
// maxDim square with the aspect ratio preserved. Results truncate toward zero
// and never drop below one pixel. ok is false when no scaling is needed.
func ScaledSize(width, height, maxDim int) (w, h int, ok bool) {
	if maxDim <= 0 || (width <= maxDim && height <= maxDim) {
		return width, height, false
	}
	if width >= height {
		w = maxDim
		h = height * maxDim / width
	} else {
		h = maxDim
		w = width * maxDim / height
	}
	return max(w, 1), max(h, 1), true
}

// FitWithin resamples img with a Lanczos filter when either side exceeds
// maxDim. The original image is returned unchanged otherwise.
func FitWithin(img image.Image, maxDim int) (image.Image, bool) {
	bounds := img.Bounds()
	w, h, ok := ScaledSize(bounds.Dx(), bounds.Dy(), maxDim)
	if !ok {
		return img, false
	}
	return imaging.Resize(img, w, h, imaging.Lanczos), true
}

// ParseHexColor parses "#rrggbb" or "rrggbb" into an opaque colour.
func ParseHexColor(value string) (color.NRGBA, bool) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "#"))
	if err != nil || len(raw) != 3 {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 0xff}, true
}
