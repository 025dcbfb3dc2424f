// Package publish copies web-ready images into a site's public directory.
package publish

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"sitepix/internal/fileutil"
	"sitepix/internal/logging"
	"sitepix/internal/scan"
)

// Options configures a publish pass.
type Options struct {
	Src  string
	Dest string
	// Extensions selects the files that are copied.
	Extensions []string
	// LegacyExtensions selects files that are reported but never copied.
	LegacyExtensions []string
	Logger           *slog.Logger
}

// Report lists what a publish pass did, by source path.
type Report struct {
	Copied  []string
	Skipped []string
	Legacy  []string
}

// Run copies every matching file from Src into Dest. Files whose content
// already matches the destination are skipped. Each copy is verified by
// SHA-256 before it replaces the destination.
func Run(opts Options) (Report, error) {
	var report Report
	logger := logging.NewComponentLogger(opts.Logger, "publish")

	seq, err := scan.Dir(opts.Src, opts.Extensions)
	if err != nil {
		return report, err
	}
	if err := os.MkdirAll(opts.Dest, 0o755); err != nil {
		return report, fmt.Errorf("create publish dir: %w", err)
	}

	for src := range seq.Paths() {
		dst := filepath.Join(opts.Dest, filepath.Base(src))
		same, err := fileutil.SameContent(src, dst)
		if err != nil {
			return report, err
		}
		if same {
			report.Skipped = append(report.Skipped, src)
			continue
		}
		if err := fileutil.CopyFileVerified(src, dst); err != nil {
			return report, fmt.Errorf("publish %s: %w", src, err)
		}
		logger.Debug("published", logging.Path(src), logging.String("dest", dst))
		report.Copied = append(report.Copied, src)
	}
	if err := seq.Err(); err != nil {
		return report, fmt.Errorf("scan %s: %w", opts.Src, err)
	}

	if len(opts.LegacyExtensions) > 0 {
		legacy, err := scan.Dir(opts.Src, opts.LegacyExtensions)
		if err != nil {
			return report, err
		}
		if report.Legacy, err = legacy.Collect(); err != nil {
			return report, fmt.Errorf("scan %s: %w", opts.Src, err)
		}
		if len(report.Legacy) > 0 {
			logging.WarnWithContext(logger, "legacy images not published", "legacy_format",
				logging.Int("count", len(report.Legacy)),
				logging.String(logging.FieldErrorHint, "run sitepix convert on the source directory"),
				logging.String(logging.FieldImpact, "these images are missing from the public directory"),
			)
		}
	}

	logger.Info("publish complete",
		logging.Int("copied", len(report.Copied)),
		logging.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}
