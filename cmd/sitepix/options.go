package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"sitepix/internal/config"
	"sitepix/internal/convert"
	"sitepix/internal/imagecodec"
	"sitepix/internal/optimize"
	"sitepix/internal/pipeline"
)

// policyFlags override the [optimize] section for one invocation.
type policyFlags struct {
	maxSizeKB    int
	maxDimension int
	startQuality int
	floorQuality int
	step         int
}

func (f *policyFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVar(&f.maxSizeKB, "max-size-kb", 0, "Byte budget per image in KB (1 KB = 1024 bytes)")
	flags.IntVar(&f.maxDimension, "max-dimension", 0, "Longest allowed width or height in pixels")
	flags.IntVar(&f.startQuality, "start-quality", 0, "First quality tried by the search")
	flags.IntVar(&f.floorQuality, "floor-quality", 0, "Lowest quality tried by the search")
	flags.IntVar(&f.step, "step", 0, "Quality decrement between attempts")
}

func (f *policyFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("max-size-kb") {
		cfg.Optimize.MaxSizeKB = f.maxSizeKB
	}
	if flags.Changed("max-dimension") {
		cfg.Optimize.MaxDimension = f.maxDimension
	}
	if flags.Changed("start-quality") {
		cfg.Optimize.StartQuality = f.startQuality
	}
	if flags.Changed("floor-quality") {
		cfg.Optimize.FloorQuality = f.floorQuality
	}
	if flags.Changed("step") {
		cfg.Optimize.Step = f.step
	}
}

// convertFlags override the [convert] section for one invocation.
type convertFlags struct {
	quality    int
	background string
	archiveDir string
}

func (f *convertFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVar(&f.quality, "quality", 0, "Fixed encoder quality for conversions")
	flags.StringVar(&f.background, "background", "", "Colour transparent pixels are flattened onto (#rrggbb)")
	flags.StringVar(&f.archiveDir, "archive-dir", "", "Copy each source here before removing it")
}

func (f *convertFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("quality") {
		cfg.Convert.Quality = f.quality
	}
	if flags.Changed("background") {
		cfg.Convert.Background = f.background
	}
	if flags.Changed("archive-dir") {
		dir, err := config.ExpandPath(f.archiveDir)
		if err != nil {
			return fmt.Errorf("resolve archive dir: %w", err)
		}
		cfg.Paths.ArchiveDir = dir
	}
	return nil
}

func policyFromConfig(cfg *config.Config) optimize.SizePolicy {
	return optimize.SizePolicy{
		MaxSizeKB:    cfg.Optimize.MaxSizeKB,
		MaxDimension: cfg.Optimize.MaxDimension,
		StartQuality: cfg.Optimize.StartQuality,
		FloorQuality: cfg.Optimize.FloorQuality,
		Step:         cfg.Optimize.Step,
	}
}

func convertOptionsFromConfig(cfg *config.Config) (convert.Options, error) {
	target, err := imagecodec.ParseFormat(cfg.Convert.TargetFormat)
	if err != nil {
		return convert.Options{}, err
	}
	bg, ok := imagecodec.ParseHexColor(cfg.Convert.Background)
	if !ok {
		return convert.Options{}, fmt.Errorf("%w: convert.background %q is not a hex colour", config.ErrInvalid, cfg.Convert.Background)
	}
	return convert.Options{
		Target:           target,
		Quality:          cfg.Convert.Quality,
		Background:       bg,
		ArchiveDir:       cfg.Paths.ArchiveDir,
		WebPMethod:       cfg.Optimize.WebPMethod,
		SourceExtensions: cfg.Convert.Extensions,
	}, nil
}

// stages selects which pipeline stages an invocation runs.
type stages struct {
	convert  bool
	optimize bool
}

func pipelineOptions(cfg *config.Config, dir string, s stages) (pipeline.Options, error) {
	opts := pipeline.Options{
		Dir:                dir,
		Convert:            s.convert,
		Optimize:           s.optimize,
		ConvertExtensions:  cfg.Convert.Extensions,
		OptimizeExtensions: cfg.Optimize.Extensions,
		Policy:             policyFromConfig(cfg),
		WebPMethod:         cfg.Optimize.WebPMethod,
		LockPath:           cfg.LockPath(dir),
	}
	if s.convert {
		convOpts, err := convertOptionsFromConfig(cfg)
		if err != nil {
			return opts, err
		}
		opts.ConvertOptions = convOpts
	}
	return opts, nil
}

// validatedLogger re-validates cfg after flag overrides and builds the
// command logger.
func validatedLogger(ctx *commandContext, cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return ctx.logger(cmd, cfg)
}
