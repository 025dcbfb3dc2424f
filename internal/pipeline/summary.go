package pipeline

import (
	"time"

	"sitepix/internal/outcome"
)

// Summary counts assets by their outcome for the whole run.
type Summary struct {
	Converted  int
	Optimized  int
	Unchanged  int
	Failed     int
	BytesSaved int64
}

// Total returns the number of assets folded into the summary.
func (s Summary) Total() int {
	return s.Converted + s.Optimized + s.Unchanged + s.Failed
}

// Summarize folds results into one outcome per asset. It has no side effects.
// A converted file that the optimize stage visits afterwards stays one
// Converted asset; it moves to Failed only if that optimize step failed.
// BytesSaved sums the savings of every stage.
func Summarize(results []outcome.Result) Summary {
	var s Summary
	converted := make(map[string]bool)
	for _, r := range results {
		s.BytesSaved += r.Saved()
		if r.Stage == outcome.StageOptimize && converted[r.Path] {
			if r.Kind == outcome.KindFailed {
				s.Converted--
				s.Failed++
			}
			continue
		}
		switch r.Kind {
		case outcome.KindConverted:
			s.Converted++
			converted[r.Target] = true
		case outcome.KindOptimized:
			s.Optimized++
		case outcome.KindUnchanged:
			s.Unchanged++
		case outcome.KindFailed:
			s.Failed++
		}
	}
	return s
}

// Report is the outcome of one run.
type Report struct {
	RunID   string
	Dir     string
	Results []outcome.Result
	Summary Summary
	Elapsed time.Duration
}

// Failures returns the failed results in scan order.
func (r Report) Failures() []outcome.Result {
	var out []outcome.Result
	for _, res := range r.Results {
		if res.Kind == outcome.KindFailed {
			out = append(out, res)
		}
	}
	return out
}
