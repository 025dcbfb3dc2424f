package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sitepix/internal/outcome"
	"sitepix/internal/pipeline"
	"sitepix/internal/preflight"
	"sitepix/internal/scan"
	"sitepix/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var noConvert bool

	cmd := &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Run a pass whenever images in DIR change",
		Long: `Watch runs one pass at startup, then another after each burst of file
changes settles for watch.debounce_ms. Passes run one at a time. Stop with
Ctrl-C; a pass in progress finishes its current image first.`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			logger, err := validatedLogger(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			dir, err := imageDir(cfg, args)
			if err != nil {
				return err
			}
			s := stages{convert: cfg.Convert.Enabled && !noConvert, optimize: true}
			if err := preflight.RequireCodecs(cfg, s.convert); err != nil {
				return err
			}
			opts, err := pipelineOptions(cfg, dir, s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			opts.OnResult = func(res outcome.Result) {
				if res.Kind != outcome.KindUnchanged {
					fmt.Fprintln(out, renderResultLine(res, colorize))
				}
			}

			exts := append(append([]string(nil), cfg.Optimize.Extensions...), cfg.Convert.Extensions...)
			matcher, err := scan.Dir(dir, exts)
			if err != nil {
				return err
			}

			pass := func(passCtx context.Context) error {
				report, err := pipeline.Run(passCtx, pipeline.NewRunContext(logger), opts)
				if err != nil {
					return err
				}
				sum := report.Summary
				if sum.Converted+sum.Optimized+sum.Failed > 0 {
					fmt.Fprintf(out, "Pass %s: %d converted, %d optimized, %d failed, saved %s\n",
						report.RunID, sum.Converted, sum.Optimized, sum.Failed, savedBytes(sum.BytesSaved))
				}
				return nil
			}

			return watch.Run(cmd.Context(), watch.Options{
				Dir:      dir,
				Debounce: time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
				Match:    matcher.MatchesName,
				Initial:  true,
				Logger:   logger,
			}, pass)
		},
	}
	cmd.Flags().BoolVar(&noConvert, "no-convert", false, "Skip the conversion stage")
	return cmd
}
