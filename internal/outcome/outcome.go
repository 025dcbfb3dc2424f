// Package outcome defines the per-asset result records produced by the
// convert and optimize stages.
package outcome

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind classifies what happened to one asset in one stage.
type Kind int

const (
	KindUnchanged Kind = iota
	KindOptimized
	KindConverted
	KindFailed
)

var titleCaser = cases.Title(language.English)

func (k Kind) String() string {
	switch k {
	case KindUnchanged:
		return "unchanged"
	case KindOptimized:
		return "optimized"
	case KindConverted:
		return "converted"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Label returns the display form used in tables and status lines.
func (k Kind) Label() string {
	return titleCaser.String(k.String())
}

// Stage names the pipeline step that produced a result.
type Stage string

const (
	StageConvert  Stage = "convert"
	StageOptimize Stage = "optimize"
)

// Result is the immutable record of one asset passing through one stage.
type Result struct {
	Stage Stage
	Kind  Kind
	Path  string
	// Target is the written file for conversions; it equals Path otherwise.
	Target       string
	OriginalSize int64
	Size         int64
	// Quality is the encoder quality that produced the output, zero when
	// nothing was encoded.
	Quality int
	Width   int
	Height  int
	Resized bool
	Err     error
}

// Unchanged records an asset that needed no work.
func Unchanged(stage Stage, path string, size int64) Result {
	return Result{Stage: stage, Kind: KindUnchanged, Path: path, Target: path, OriginalSize: size, Size: size}
}

// Failed records an asset the stage could not process. The file on disk is
// left as it was.
func Failed(stage Stage, path string, size int64, err error) Result {
	return Result{Stage: stage, Kind: KindFailed, Path: path, Target: path, OriginalSize: size, Size: size, Err: err}
}

// Saved reports the bytes removed by the stage. Negative when the output grew.
func (r Result) Saved() int64 {
	if r.Kind == KindFailed || r.Kind == KindUnchanged {
		return 0
	}
	return r.OriginalSize - r.Size
}

// Reason returns the failure text, or an empty string.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
