package pipeline

import (
	"fmt"
	"os"

	"sitepix/internal/optimize"
	"sitepix/internal/scan"
)

// ViolationKind names why a file fails the check.
type ViolationKind string

const (
	ViolationLegacyFormat ViolationKind = "legacy_format"
	ViolationOverBudget   ViolationKind = "over_budget"
)

// Violation is one file that a run would still change.
type Violation struct {
	Path string
	Kind ViolationKind
	Size int64
}

// CheckOptions configures a read-only compliance check.
type CheckOptions struct {
	Dir                string
	LegacyExtensions   []string
	OptimizeExtensions []string
	Policy             optimize.SizePolicy
}

// Check lists files in legacy formats and files over the byte budget. It
// never opens image data or modifies the directory.
func Check(opts CheckOptions) ([]Violation, error) {
	var violations []Violation

	if len(opts.LegacyExtensions) > 0 {
		legacy, err := scan.Dir(opts.Dir, opts.LegacyExtensions)
		if err != nil {
			return nil, err
		}
		paths, err := legacy.Collect()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", opts.Dir, err)
		}
		for _, path := range paths {
			violations = append(violations, Violation{Path: path, Kind: ViolationLegacyFormat, Size: fileSize(path)})
		}
	}

	seq, err := scan.Dir(opts.Dir, opts.OptimizeExtensions)
	if err != nil {
		return nil, err
	}
	budget := opts.Policy.MaxBytes()
	for path := range seq.Paths() {
		if size := fileSize(path); size > budget {
			violations = append(violations, Violation{Path: path, Kind: ViolationOverBudget, Size: size})
		}
	}
	if err := seq.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", opts.Dir, err)
	}
	return violations, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
