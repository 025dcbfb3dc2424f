package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitepix/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor [DIR]",
		Short: "Check codecs and directories",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var dir string
			if len(args) > 0 || cfg.Paths.PhotosDir != "" {
				if dir, err = imageDir(cfg, args); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("sitepix doctor", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cfg, dir)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			if err := preflight.RequireCodecs(cfg, true); err != nil {
				return err
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}
