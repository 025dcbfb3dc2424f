package main

import (
	"errors"

	"sitepix/internal/config"
	"sitepix/internal/deps"
	"sitepix/internal/imagecodec"
	"sitepix/internal/optimize"
	"sitepix/internal/scan"
)

// Exit codes for the sitepix CLI.
// Per-asset failures do not change the exit code; only whole-run errors do.
const (
	ExitSuccess           = 0 // Run completed
	ExitGeneral           = 1 // General/unexpected error
	ExitUsage             = 2 // Invalid flags, arguments, or config
	ExitDirectoryNotFound = 3 // Image directory missing
	ExitViolations        = 4 // check found files a run would change
	ExitCodecUnavailable  = 5 // Required codec failed its probe
)

var (
	// errUsage marks argument and flag mistakes.
	errUsage = errors.New("usage error")
	// errViolations is returned by check when the directory is not compliant.
	errViolations = errors.New("image directory is not compliant")
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, deps.ErrCodecUnavailable) {
		return ExitCodecUnavailable
	}

	if errors.Is(err, errViolations) {
		return ExitViolations
	}

	if errors.Is(err, scan.ErrDirectoryNotFound) {
		return ExitDirectoryNotFound
	}

	if errors.Is(err, errUsage) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalid) ||
		errors.Is(err, optimize.ErrInvalidPolicy) ||
		errors.Is(err, imagecodec.ErrUnsupportedFormat) {
		return ExitUsage
	}

	return ExitGeneral
}
