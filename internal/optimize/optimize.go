package optimize

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"

	"sitepix/internal/fileutil"
	"sitepix/internal/imagecodec"
	"sitepix/internal/logging"
	"sitepix/internal/outcome"
)

var (
	// ErrBudgetUnreachable means no quality down to the floor produced a file
	// within the budget.
	ErrBudgetUnreachable = errors.New("size budget unreachable")
	// ErrInvalidPolicy wraps SizePolicy validation failures.
	ErrInvalidPolicy = errors.New("invalid size policy")
)

// EncoderFactory returns the encoder for a target format.
type EncoderFactory func(imagecodec.Format) (imagecodec.Encoder, error)

// Optimizer applies a SizePolicy to individual files.
type Optimizer struct {
	policy   SizePolicy
	factory  EncoderFactory
	encoders map[imagecodec.Format]imagecodec.Encoder
	logger   *slog.Logger
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger routes optimizer logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Optimizer) {
		o.logger = logging.NewComponentLogger(logger, "optimize")
	}
}

// WithEncoderFactory replaces the codec lookup.
func WithEncoderFactory(factory EncoderFactory) Option {
	return func(o *Optimizer) {
		if factory != nil {
			o.factory = factory
		}
	}
}

// WithWebPMethod sets the WebP compression effort used by the default factory.
func WithWebPMethod(method int) Option {
	return func(o *Optimizer) {
		o.factory = func(f imagecodec.Format) (imagecodec.Encoder, error) {
			return imagecodec.NewEncoder(f, imagecodec.Options{WebPMethod: method})
		}
	}
}

// New validates policy and returns an Optimizer.
func New(policy SizePolicy, opts ...Option) (*Optimizer, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	o := &Optimizer{
		policy:   policy,
		encoders: make(map[imagecodec.Format]imagecodec.Encoder),
		logger:   logging.NewComponentLogger(nil, "optimize"),
		factory: func(f imagecodec.Format) (imagecodec.Encoder, error) {
			return imagecodec.NewEncoder(f, imagecodec.Options{WebPMethod: imagecodec.DefaultWebPMethod})
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Policy returns the policy the optimizer enforces.
func (o *Optimizer) Policy() SizePolicy {
	return o.policy
}

// File brings path under the budget. Files already within budget are not
// opened. Failures are returned as a Failed result and leave path untouched.
func (o *Optimizer) File(path string) outcome.Result {
	logger := o.logger.With(logging.Path(path))

	info, err := os.Stat(path)
	if err != nil {
		return o.fail(logger, path, 0, &imagecodec.AssetError{Path: path, Op: "stat", Err: err})
	}
	original := info.Size()
	if original <= o.policy.MaxBytes() {
		logger.Debug("within budget", logging.Int64("size", original))
		return outcome.Unchanged(outcome.StageOptimize, path, original)
	}

	format, err := imagecodec.FormatFromPath(path)
	if err != nil {
		return o.fail(logger, path, original, err)
	}
	enc, err := o.encoder(format)
	if err != nil {
		return o.fail(logger, path, original, err)
	}

	img, err := imagecodec.Decode(path)
	if err != nil {
		return o.fail(logger, path, original, err)
	}
	img, resized := imagecodec.FitWithin(img, o.policy.MaxDimension)
	bounds := img.Bounds()
	if resized {
		logger.Debug("resampled",
			logging.Int("width", bounds.Dx()),
			logging.Int("height", bounds.Dy()),
		)
	}

	for _, quality := range o.policy.Qualities() {
		size, fits, err := o.attempt(path, enc, img, quality)
		if err != nil {
			return o.fail(logger, path, original, err)
		}
		if fits {
			logger.Info("optimized",
				logging.Int("quality", quality),
				logging.Int64("original_size", original),
				logging.Int64("size", size),
				logging.Bool("resized", resized),
			)
			return outcome.Result{
				Stage:        outcome.StageOptimize,
				Kind:         outcome.KindOptimized,
				Path:         path,
				Target:       path,
				OriginalSize: original,
				Size:         size,
				Quality:      quality,
				Width:        bounds.Dx(),
				Height:       bounds.Dy(),
				Resized:      resized,
			}
		}
		logger.Debug("attempt over budget",
			logging.Int("quality", quality),
			logging.Int64("size", size),
			logging.Int64("budget", o.policy.MaxBytes()),
		)
	}

	err = fmt.Errorf("%w: %s stays above %d KB at quality %d",
		ErrBudgetUnreachable, path, o.policy.MaxSizeKB, o.policy.FloorQuality)
	logging.WarnWithContext(logger, "size budget unreachable", "budget_unreachable",
		logging.Int64("size", original),
		logging.Int("floor_quality", o.policy.FloorQuality),
		logging.String(logging.FieldErrorHint, "lower floor_quality or max_dimension, or raise max_size_kb"),
		logging.String(logging.FieldImpact, "original left in place over budget"),
	)
	return outcome.Failed(outcome.StageOptimize, path, original, err)
}

// attempt encodes one candidate next to path and promotes it when it fits.
func (o *Optimizer) attempt(path string, enc imagecodec.Encoder, img image.Image, quality int) (int64, bool, error) {
	tmp, err := fileutil.CreateTemp(path)
	if err != nil {
		return 0, false, &imagecodec.AssetError{Path: path, Op: "create temp", Err: err}
	}
	promoted := false
	defer func() {
		if !promoted {
			_ = tmp.Discard()
		}
	}()

	if err := enc.Encode(tmp, img, quality); err != nil {
		return 0, false, &imagecodec.AssetError{Path: path, Op: "encode", Err: err}
	}
	size, err := tmp.Size()
	if err != nil {
		return 0, false, &imagecodec.AssetError{Path: path, Op: "flush", Err: err}
	}
	if size > o.policy.MaxBytes() {
		return size, false, nil
	}
	if err := tmp.Promote(path); err != nil {
		return size, false, &imagecodec.AssetError{Path: path, Op: "replace", Err: err}
	}
	promoted = true
	return size, true, nil
}

func (o *Optimizer) encoder(format imagecodec.Format) (imagecodec.Encoder, error) {
	if enc, ok := o.encoders[format]; ok {
		return enc, nil
	}
	enc, err := o.factory(format)
	if err != nil {
		return nil, err
	}
	o.encoders[format] = enc
	return enc, nil
}

func (o *Optimizer) fail(logger *slog.Logger, path string, size int64, err error) outcome.Result {
	logging.ErrorWithContext(logger, "optimize failed", "optimize_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check that the file is a readable image"),
	)
	return outcome.Failed(outcome.StageOptimize, path, size, err)
}
