// Package imagecodec wraps the decoders, encoders, and pixel transforms the
// photo pipeline relies on.
//
// WebP goes through github.com/gen2brain/webp; every other raster format is
// decoded through github.com/disintegration/imaging, which also provides the
// Lanczos resampler, background compositing, and the JPEG/PNG encoders. The
// rest of sitepix only sees the Encoder interface and the Format enum so the
// quality search can be exercised with a deterministic fake encoder.
package imagecodec
