package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"sitepix/internal/config"
	"sitepix/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCreatableDirectory passes when path is a usable directory or when the
// nearest existing ancestor would let sitepix create it.
func CheckCreatableDirectory(name, path string) Result {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	parent := filepath.Dir(path)
	for parent != filepath.Dir(parent) {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		parent = filepath.Dir(parent)
	}
	if res := CheckDirectoryAccess(name, parent); !res.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot be created under %s)", path, parent)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first run)", path)}
}

// Codecs probes every codec the configured stages will encode with. Both the
// run commands and doctor use this to avoid duplicating the requirements list.
func Codecs(cfg *config.Config, convert bool) []deps.Status {
	formats := RequiredFormats(cfg, convert)
	requirements := make([]deps.Requirement, 0, len(formats))
	for _, format := range formats {
		requirements = append(requirements, deps.RequirementFor(format, "Required to encode ."+string(format)+" output"))
	}
	return deps.CheckCodecs(requirements, nil)
}

// RequireCodecs returns deps.ErrCodecUnavailable when a required codec is missing.
func RequireCodecs(cfg *config.Config, convert bool) error {
	return deps.Require(Codecs(cfg, convert))
}
