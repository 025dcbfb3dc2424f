package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sitepix/internal/config"
	"sitepix/internal/imagecodec"
	"sitepix/internal/logging"
	"sitepix/internal/preflight"
	"sitepix/internal/scan"
	"sitepix/internal/variants"
)

func newVariantsCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var quality int

	cmd := &cobra.Command{
		Use:   "variants [DIR]",
		Short: "Write small, medium and large responsive copies",
		Long: `Variants writes name-small, name-medium and name-large copies of every
image in DIR into --out, each fitted inside the configured square box.
Aspect ratio is preserved and images are never upscaled.`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}
			dir, err := imageDir(cfg, args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(outDir) == "" {
				return fmt.Errorf("%w: --out is required", errUsage)
			}
			out, err := config.ExpandPath(outDir)
			if err != nil {
				return fmt.Errorf("resolve output dir: %w", err)
			}
			if err := preflight.RequireCodecs(cfg, true); err != nil {
				return err
			}

			fallback, err := imagecodec.ParseFormat(cfg.Convert.TargetFormat)
			if err != nil {
				return err
			}
			boxes := make([]variants.Box, 0, 3)
			for _, b := range cfg.VariantBoxes() {
				boxes = append(boxes, variants.Box{Name: b.Name, Size: b.Size})
			}
			q := quality
			if q <= 0 {
				q = cfg.Convert.Quality
			}
			gen, err := variants.New(variants.Options{
				OutDir:     out,
				Boxes:      boxes,
				Quality:    q,
				Fallback:   fallback,
				WebPMethod: cfg.Optimize.WebPMethod,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			exts := append(append([]string(nil), cfg.Optimize.Extensions...), cfg.Convert.Extensions...)
			seq, err := scan.Dir(dir, exts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			colorize := shouldColorize(w)
			var written, failed int
			for src := range seq.Paths() {
				vs, err := gen.Generate(src)
				if err != nil {
					failed++
					logging.ErrorWithContext(logger, "variant generation failed", "variants_failed",
						logging.Path(src),
						logging.Error(err),
						logging.String(logging.FieldImpact, "responsive copies missing for this image"),
					)
					fmt.Fprintln(w, renderStatusLine(filepath.Base(src), statusError, err.Error(), colorize))
					continue
				}
				parts := make([]string, 0, len(vs))
				for _, v := range vs {
					parts = append(parts, fmt.Sprintf("%s %dx%d %s", v.Name, v.Width, v.Height, humanize.IBytes(uint64(v.Size))))
				}
				written += len(vs)
				fmt.Fprintln(w, renderStatusLine(filepath.Base(src), statusOK, strings.Join(parts, ", "), colorize))
			}
			if err := seq.Err(); err != nil {
				return fmt.Errorf("scan %s: %w", dir, err)
			}
			fmt.Fprintf(w, "Wrote %d variant(s) to %s, %d source(s) failed\n", written, out, failed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory that receives the variants")
	cmd.Flags().IntVar(&quality, "quality", 0, "Encoder quality for variants (defaults to convert.quality)")
	return cmd
}
