package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sitepix/internal/config"
	"sitepix/internal/outcome"
	"sitepix/internal/pipeline"
	"sitepix/internal/preflight"
)

func newOptimizeCommand(ctx *commandContext) *cobra.Command {
	var policy policyFlags
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "optimize [DIR]",
		Short: "Bring every image under the byte budget and dimension cap",
		Long: `Optimize resamples images wider or taller than --max-dimension and
re-encodes over-budget images at decreasing quality until they fit. Images
that cannot meet the budget at the floor quality are reported and left as
they were.`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			policy.apply(cmd, cfg)
			return runPipeline(cmd, ctx, cfg, args, stages{optimize: true}, jsonOutput)
		},
	}
	policy.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	return cmd
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var conv convertFlags
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "convert [DIR]",
		Short: "Convert legacy formats to the target format",
		Long: `Convert re-encodes every legacy image (png, jpg, gif, bmp by default)
to the target format at a fixed quality, flattening transparency onto the
background colour. The source is removed once the converted file is in place.`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			if err := conv.apply(cmd, cfg); err != nil {
				return err
			}
			return runPipeline(cmd, ctx, cfg, args, stages{convert: true}, jsonOutput)
		},
	}
	conv.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var policy policyFlags
	var conv convertFlags
	var noConvert bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run [DIR]",
		Short: "Convert legacy formats, then optimize",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			policy.apply(cmd, cfg)
			if err := conv.apply(cmd, cfg); err != nil {
				return err
			}
			s := stages{convert: cfg.Convert.Enabled && !noConvert, optimize: true}
			return runPipeline(cmd, ctx, cfg, args, s, jsonOutput)
		},
	}
	policy.register(cmd)
	conv.register(cmd)
	cmd.Flags().BoolVar(&noConvert, "no-convert", false, "Skip the conversion stage")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	return cmd
}

// runPipeline executes one pass and prints per-file lines and the summary.
// Per-asset failures are part of the report and do not fail the command.
func runPipeline(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, args []string, s stages, jsonOutput bool) error {
	logger, err := validatedLogger(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	dir, err := imageDir(cfg, args)
	if err != nil {
		return err
	}
	if err := preflight.RequireCodecs(cfg, s.convert); err != nil {
		return err
	}
	opts, err := pipelineOptions(cfg, dir, s)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !jsonOutput {
		colorize := shouldColorize(out)
		opts.OnResult = func(res outcome.Result) {
			fmt.Fprintln(out, renderResultLine(res, colorize))
		}
	}

	report, err := pipeline.Run(cmd.Context(), pipeline.NewRunContext(logger), opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if jsonOutput {
		if werr := writeJSON(cmd, newReportJSON(report)); werr != nil {
			return werr
		}
	} else {
		renderSummary(out, report)
	}
	return err
}
