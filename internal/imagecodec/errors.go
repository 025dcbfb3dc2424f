package imagecodec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for formats sitepix cannot encode.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrDecode marks a source that could not be read as an image.
	ErrDecode = errors.New("decode image")
	// ErrEncode marks an encoder failure.
	ErrEncode = errors.New("encode image")
)

// AssetError ties a codec failure to the file it happened on.
type AssetError struct {
	Path string
	Op   string
	Err  error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}
