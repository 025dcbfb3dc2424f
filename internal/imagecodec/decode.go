package imagecodec

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
)

// Asset describes one image on disk.
type Asset struct {
	Path   string
	Size   int64
	Width  int
	Height int
	Mode   ColorMode
}

// Load stats and decodes path, returning the asset description along with
// the decoded pixels.
func Load(path string) (Asset, image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Asset{}, nil, &AssetError{Path: path, Op: "stat", Err: err}
	}
	img, err := Decode(path)
	if err != nil {
		return Asset{}, nil, err
	}
	bounds := img.Bounds()
	return Asset{
		Path:   path,
		Size:   info.Size(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Mode:   ColorModeOf(img),
	}, img, nil
}

// Decode reads the image at path. The container is sniffed from its magic
// bytes, not its extension.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &AssetError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	img, err := DecodeReader(f)
	if err != nil {
		return nil, &AssetError{Path: path, Op: "decode", Err: err}
	}
	return img, nil
}

// DecodeReader decodes a WebP, JPEG, PNG, GIF, BMP, or TIFF stream. JPEG EXIF
// orientation is applied.
func DecodeReader(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(12)

	var (
		img image.Image
		err error
	)
	if isWebP(head) {
		img, err = webp.Decode(br)
	} else {
		img, err = imaging.Decode(br, imaging.AutoOrientation(true))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

func isWebP(head []byte) bool {
	return len(head) >= 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP"))
}
