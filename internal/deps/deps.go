// Package deps reports whether the image codecs a run needs can actually
// encode in this process.
package deps

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"sitepix/internal/imagecodec"
)

// ErrCodecUnavailable is returned when a required codec cannot encode.
var ErrCodecUnavailable = errors.New("codec unavailable")

// Requirement defines a codec a command relies on.
type Requirement struct {
	Name        string
	Format      imagecodec.Format
	Description string
	Optional    bool
}

// Status reports the availability of a codec.
type Status struct {
	Name        string
	Format      imagecodec.Format
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// EncoderFactory builds the encoder probed for a requirement.
type EncoderFactory func(imagecodec.Format) (imagecodec.Encoder, error)

// DefaultFactory returns the production encoders with the fastest WebP method.
func DefaultFactory(format imagecodec.Format) (imagecodec.Encoder, error) {
	return imagecodec.NewEncoder(format, imagecodec.Options{WebPMethod: 0})
}

// CheckCodecs evaluates the provided requirements and reports availability.
// Each codec must encode a single pixel and decode its own output.
func CheckCodecs(requirements []Requirement, factory EncoderFactory) []Status {
	if factory == nil {
		factory = DefaultFactory
	}
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{
			Name:        req.Name,
			Format:      req.Format,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		enc, err := factory(req.Format)
		if err != nil {
			status.Detail = err.Error()
			results = append(results, status)
			continue
		}
		if err := roundTrip(enc); err != nil {
			status.Detail = err.Error()
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

func roundTrip(enc imagecodec.Encoder) error {
	if err := imagecodec.Probe(enc); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 2, 2)), 50); err != nil {
		return err
	}
	if _, err := imagecodec.DecodeReader(&buf); err != nil {
		return fmt.Errorf("read back %s: %w", enc.Format(), err)
	}
	return nil
}

// Require returns ErrCodecUnavailable naming every missing non-optional codec.
func Require(statuses []Status) error {
	var missing []string
	for _, s := range statuses {
		if s.Available || s.Optional {
			continue
		}
		detail := s.Name
		if s.Detail != "" {
			detail = fmt.Sprintf("%s (%s)", s.Name, s.Detail)
		}
		missing = append(missing, detail)
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrCodecUnavailable, strings.Join(missing, ", "))
}

// RequirementFor builds the requirement for one format.
func RequirementFor(format imagecodec.Format, description string) Requirement {
	return Requirement{
		Name:        strings.ToUpper(string(format)),
		Format:      format,
		Description: description,
	}
}
