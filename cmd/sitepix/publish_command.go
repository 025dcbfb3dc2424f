package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"sitepix/internal/config"
	"sitepix/internal/publish"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish [SRC] [DEST]",
		Short: "Copy web-ready images into the public directory",
		Long: `Publish copies every image in the optimized formats from SRC to DEST,
verifying each copy. Files already identical at DEST are skipped. Legacy
images are reported and never copied. SRC and DEST default to
paths.photos_dir and paths.publish_dir.`,
		Args: maxArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}
			src, err := imageDir(cfg, args)
			if err != nil {
				return err
			}
			rawDest := cfg.Paths.PublishDir
			if len(args) > 1 {
				rawDest = args[1]
			}
			if rawDest == "" {
				return fmt.Errorf("%w: no destination given and paths.publish_dir is not set", errUsage)
			}
			dest, err := config.ExpandPath(rawDest)
			if err != nil {
				return fmt.Errorf("resolve destination: %w", err)
			}

			report, err := publish.Run(publish.Options{
				Src:              src,
				Dest:             dest,
				Extensions:       cfg.Optimize.Extensions,
				LegacyExtensions: cfg.Convert.Extensions,
				Logger:           logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, path := range report.Copied {
				fmt.Fprintln(out, renderStatusLine(filepath.Base(path), statusOK, "copied", colorize))
			}
			for _, path := range report.Legacy {
				fmt.Fprintln(out, renderStatusLine(filepath.Base(path), statusWarn, "legacy format, not published", colorize))
			}
			fmt.Fprintf(out, "Published %d, unchanged %d, legacy %d -> %s\n",
				len(report.Copied), len(report.Skipped), len(report.Legacy), dest)
			return nil
		},
	}
	return cmd
}
