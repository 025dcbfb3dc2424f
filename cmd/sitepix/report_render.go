package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"sitepix/internal/outcome"
	"sitepix/internal/pipeline"
)

func renderSummary(out io.Writer, report pipeline.Report) {
	s := report.Summary
	rows := [][]string{
		{outcome.KindConverted.Label(), strconv.Itoa(s.Converted)},
		{outcome.KindOptimized.Label(), strconv.Itoa(s.Optimized)},
		{outcome.KindUnchanged.Label(), strconv.Itoa(s.Unchanged)},
		{outcome.KindFailed.Label(), strconv.Itoa(s.Failed)},
	}
	footer := []string{"Saved", savedBytes(s.BytesSaved)}
	fmt.Fprintln(out, renderTable([]string{"Result", "Files"}, rows, []columnAlignment{alignLeft, alignRight}, footer))
	fmt.Fprintf(out, "Run %s finished in %s\n", report.RunID, report.Elapsed.Round(time.Millisecond))
}

func savedBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

type summaryJSON struct {
	Converted  int   `json:"converted"`
	Optimized  int   `json:"optimized"`
	Unchanged  int   `json:"unchanged"`
	Failed     int   `json:"failed"`
	BytesSaved int64 `json:"bytes_saved"`
}

type resultJSON struct {
	Stage        string `json:"stage"`
	Result       string `json:"result"`
	Path         string `json:"path"`
	Target       string `json:"target,omitempty"`
	OriginalSize int64  `json:"original_size"`
	Size         int64  `json:"size"`
	Quality      int    `json:"quality,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Resized      bool   `json:"resized,omitempty"`
	Error        string `json:"error,omitempty"`
}

type reportJSON struct {
	RunID     string       `json:"run_id"`
	Dir       string       `json:"dir"`
	Summary   summaryJSON  `json:"summary"`
	ElapsedMS int64        `json:"elapsed_ms"`
	Results   []resultJSON `json:"results"`
}

func newReportJSON(report pipeline.Report) reportJSON {
	s := report.Summary
	out := reportJSON{
		RunID: report.RunID,
		Dir:   report.Dir,
		Summary: summaryJSON{
			Converted:  s.Converted,
			Optimized:  s.Optimized,
			Unchanged:  s.Unchanged,
			Failed:     s.Failed,
			BytesSaved: s.BytesSaved,
		},
		ElapsedMS: report.Elapsed.Milliseconds(),
		Results:   make([]resultJSON, 0, len(report.Results)),
	}
	for _, res := range report.Results {
		r := resultJSON{
			Stage:        string(res.Stage),
			Result:       res.Kind.String(),
			Path:         res.Path,
			OriginalSize: res.OriginalSize,
			Size:         res.Size,
			Quality:      res.Quality,
			Width:        res.Width,
			Height:       res.Height,
			Resized:      res.Resized,
			Error:        res.Reason(),
		}
		if res.Target != res.Path {
			r.Target = res.Target
		}
		out.Results = append(out.Results, r)
	}
	return out
}
