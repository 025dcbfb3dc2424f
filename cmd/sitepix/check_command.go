package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sitepix/internal/pipeline"
)

type violationJSON struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	Size int64  `json:"size"`
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var policy policyFlags
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check [DIR]",
		Short: "Fail when images remain in legacy formats or over budget",
		Long: `Check is a read-only gate for CI. It lists legacy-format images and
images over the byte budget, and exits with status 4 when any exist.`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			policy.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			dir, err := imageDir(cfg, args)
			if err != nil {
				return err
			}

			violations, err := pipeline.Check(pipeline.CheckOptions{
				Dir:                dir,
				LegacyExtensions:   cfg.Convert.Extensions,
				OptimizeExtensions: cfg.Optimize.Extensions,
				Policy:             policyFromConfig(cfg),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				items := make([]violationJSON, 0, len(violations))
				for _, v := range violations {
					items = append(items, violationJSON{Path: v.Path, Kind: string(v.Kind), Size: v.Size})
				}
				if err := writeJSON(cmd, items); err != nil {
					return err
				}
			} else if len(violations) == 0 {
				fmt.Fprintln(out, renderStatusLine(filepath.Base(dir), statusOK, "compliant", shouldColorize(out)))
			} else {
				rows := make([][]string, 0, len(violations))
				for _, v := range violations {
					rows = append(rows, []string{filepath.Base(v.Path), string(v.Kind), humanize.IBytes(uint64(v.Size))})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"File", "Violation", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
					nil,
				))
			}

			if len(violations) > 0 {
				return fmt.Errorf("%w: %d file(s) in %s need sitepix run", errViolations, len(violations), dir)
			}
			return nil
		},
	}
	policy.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output violations as JSON")
	return cmd
}
