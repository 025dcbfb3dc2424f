package preflight

import (
	"fmt"

	"sitepix/internal/config"
	"sitepix/internal/deps"
	"sitepix/internal/imagecodec"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable preflight check for the given config. dir
// is the image directory the command will operate on; empty skips it.
func RunAll(cfg *config.Config, dir string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range Codecs(cfg, true) {
		results = append(results, codecResult(status))
	}

	results = append(results, CheckCreatableDirectory("State directory", cfg.Paths.StateDir))
	if dir != "" {
		results = append(results, CheckDirectoryAccess("Image directory", dir))
	}
	if cfg.Paths.PublishDir != "" {
		results = append(results, CheckDirectoryAccess("Publish directory", cfg.Paths.PublishDir))
	}
	if cfg.Paths.ArchiveDir != "" {
		results = append(results, CheckDirectoryAccess("Archive directory", cfg.Paths.ArchiveDir))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func codecResult(status deps.Status) Result {
	name := status.Name + " codec"
	if status.Available {
		return Result{Name: name, Passed: true, Detail: status.Description}
	}
	detail := status.Detail
	if status.Optional {
		detail = fmt.Sprintf("%s (optional)", detail)
	}
	return Result{Name: name, Passed: status.Optional, Detail: detail}
}

// RequiredFormats lists the formats the configured stages encode. convert is
// the caller's stage decision; convert.enabled is not consulted here. With
// convert off the target format is still needed when optimize covers it.
func RequiredFormats(cfg *config.Config, convert bool) []imagecodec.Format {
	var formats []imagecodec.Format
	add := func(f imagecodec.Format) {
		for _, existing := range formats {
			if existing == f {
				return
			}
		}
		formats = append(formats, f)
	}
	if convert {
		if f, err := imagecodec.ParseFormat(cfg.Convert.TargetFormat); err == nil {
			add(f)
		}
	}
	for _, ext := range cfg.Optimize.Extensions {
		if f, err := imagecodec.FormatFromPath("x" + ext); err == nil {
			add(f)
		}
	}
	return formats
}
