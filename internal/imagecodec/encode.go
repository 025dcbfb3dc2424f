package imagecodec

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
)

// DefaultWebPMethod trades encode time for size (0 fast, 6 smallest).
const DefaultWebPMethod = 6

// Encoder writes an image in one format at a given quality.
type Encoder interface {
	Format() Format
	Encode(w io.Writer, img image.Image, quality int) error
}

// Options tune the concrete encoders.
type Options struct {
	WebPMethod int
}

// NewEncoder returns the encoder for format.
func NewEncoder(format Format, opts Options) (Encoder, error) {
	switch format {
	case FormatWebP:
		method := opts.WebPMethod
		if method < 0 || method > 6 {
			method = DefaultWebPMethod
		}
		return webpEncoder{method: method}, nil
	case FormatJPEG:
		return imagingEncoder{format: FormatJPEG}, nil
	case FormatPNG:
		return imagingEncoder{format: FormatPNG}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

type webpEncoder struct {
	method int
}

func (webpEncoder) Format() Format { return FormatWebP }

func (e webpEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	if err := webp.Encode(w, img, webp.Options{Quality: clampQuality(quality), Method: e.method}); err != nil {
		return fmt.Errorf("%w: webp: %w", ErrEncode, err)
	}
	return nil
}

type imagingEncoder struct {
	format Format
}

func (e imagingEncoder) Format() Format { return e.format }

func (e imagingEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	var err error
	switch e.format {
	case FormatJPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(clampQuality(quality)))
	case FormatPNG:
		// PNG is lossless; quality is ignored.
		err = imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, e.format, err)
	}
	return nil
}

// Probe encodes a single pixel to prove the encoder can run in this process.
func Probe(enc Encoder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s codec panicked: %v", ErrEncode, enc.Format(), r)
		}
	}()
	pixel := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	return enc.Encode(io.Discard, pixel, 50)
}

func clampQuality(q int) int {
	switch {
	case q < 1:
		return 1
	case q > 100:
		return 100
	default:
		return q
	}
}
