package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"sitepix/internal/convert"
	"sitepix/internal/logging"
	"sitepix/internal/optimize"
	"sitepix/internal/outcome"
	"sitepix/internal/scan"
)

// Options configures one run.
type Options struct {
	Dir string
	// Convert enables the conversion stage ahead of optimization.
	Convert bool
	// Optimize enables the size-compliance stage.
	Optimize           bool
	ConvertExtensions  []string
	ConvertOptions     convert.Options
	OptimizeExtensions []string
	Policy             optimize.SizePolicy
	WebPMethod         int
	// EncoderFactory overrides the optimizer's codec lookup.
	EncoderFactory optimize.EncoderFactory
	// LockPath, when set, is held exclusively for the duration of the run.
	LockPath string
	// OnResult is called once per result as it is produced.
	OnResult func(outcome.Result)
}

// Run scans opts.Dir and applies the enabled stages. A missing directory
// fails with scan.ErrDirectoryNotFound before anything is modified. Per-asset
// failures are recorded in the report and do not stop the run. When ctx is
// cancelled the partial report is returned together with ctx.Err().
func Run(ctx context.Context, rc RunContext, opts Options) (Report, error) {
	report := Report{RunID: rc.RunID, Dir: opts.Dir}
	logger := rc.RunLogger(ctx)

	var (
		convertSeq, optimizeSeq *scan.Sequence
		optimizer               *optimize.Optimizer
		err                     error
	)
	if _, err = scan.Dir(opts.Dir, nil); err != nil {
		return report, err
	}
	if opts.Convert {
		if convertSeq, err = scan.Dir(opts.Dir, opts.ConvertExtensions); err != nil {
			return report, err
		}
	}
	if opts.Optimize {
		if optimizeSeq, err = scan.Dir(opts.Dir, opts.OptimizeExtensions); err != nil {
			return report, err
		}
		optimizer, err = optimize.New(opts.Policy,
			optimize.WithWebPMethod(opts.WebPMethod),
			optimize.WithEncoderFactory(opts.EncoderFactory),
			optimize.WithLogger(logger),
		)
		if err != nil {
			return report, err
		}
	}

	if opts.LockPath != "" {
		lock, err := AcquireLock(opts.LockPath)
		if err != nil {
			return report, err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("release run lock", logging.Error(err))
			}
		}()
	}

	logger.Info("run started",
		logging.String("dir", opts.Dir),
		logging.Bool("convert", opts.Convert),
		logging.Bool("optimize", opts.Optimize),
		logging.Int("max_size_kb", opts.Policy.MaxSizeKB),
		logging.Int("max_dimension", opts.Policy.MaxDimension),
	)

	finish := func(err error) (Report, error) {
		report.Summary = Summarize(report.Results)
		report.Elapsed = rc.Elapsed()
		return report, err
	}
	record := func(res outcome.Result) {
		report.Results = append(report.Results, res)
		if opts.OnResult != nil {
			opts.OnResult(res)
		}
	}

	if convertSeq != nil {
		convOpts := opts.ConvertOptions
		convOpts.Logger = logger
		if len(opts.ConvertExtensions) > 0 {
			convOpts.SourceExtensions = opts.ConvertExtensions
		}
		if convOpts, err = convOpts.Prepare(); err != nil {
			return finish(err)
		}
		if err := runStage(ctx, stageLogger(logger, outcome.StageConvert), convertSeq, record, func(path string) outcome.Result {
			return convert.File(path, convOpts)
		}); err != nil {
			return finish(err)
		}
	}

	if optimizeSeq != nil {
		if err := runStage(ctx, stageLogger(logger, outcome.StageOptimize), optimizeSeq, record, optimizer.File); err != nil {
			return finish(err)
		}
	}

	report, err = finish(nil)
	logger.Info("run complete",
		logging.Int("converted", report.Summary.Converted),
		logging.Int("optimized", report.Summary.Optimized),
		logging.Int("unchanged", report.Summary.Unchanged),
		logging.Int("failed", report.Summary.Failed),
		logging.Int64("bytes_saved", report.Summary.BytesSaved),
		logging.Duration("elapsed", report.Elapsed),
	)
	return report, err
}

func runStage(ctx context.Context, logger *slog.Logger, seq *scan.Sequence, record func(outcome.Result), process func(string) outcome.Result) error {
	paths, err := seq.Collect()
	if err != nil {
		return fmt.Errorf("scan %s: %w", seq.Root(), err)
	}
	logger.Debug("stage started", logging.Int("assets", len(paths)))

	sampler := logging.NewProgressSampler(10)
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			logger.Info("run cancelled", logging.Int("remaining", len(paths)-i))
			return err
		}
		record(process(path))
		if sampler.ShouldLog(i+1, len(paths)) {
			logger.Info("progress", logging.Int("done", i+1), logging.Int("total", len(paths)))
		}
	}
	return nil
}

func stageLogger(logger *slog.Logger, stage outcome.Stage) *slog.Logger {
	return logger.With(logging.String(logging.FieldStage, string(stage)))
}
