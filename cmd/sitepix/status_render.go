package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"sitepix/internal/optimize"
	"sitepix/internal/outcome"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 24
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderResultLine formats one per-asset result, e.g.
//
//	photo.webp:  [OK] Optimized q60 1.2 MiB -> 93 KiB, resized to 800x600
func renderResultLine(res outcome.Result, colorize bool) string {
	label := filepath.Base(res.Path)
	kind, message := resultStatus(res)
	return renderStatusLine(label, kind, message, colorize)
}

func resultStatus(res outcome.Result) (statusKind, string) {
	switch res.Kind {
	case outcome.KindConverted:
		return statusOK, fmt.Sprintf("%s to %s q%d %s",
			res.Kind.Label(), filepath.Base(res.Target), res.Quality, sizeChange(res))
	case outcome.KindOptimized:
		msg := fmt.Sprintf("%s q%d %s", res.Kind.Label(), res.Quality, sizeChange(res))
		if res.Resized {
			msg += fmt.Sprintf(", resized to %dx%d", res.Width, res.Height)
		}
		return statusOK, msg
	case outcome.KindFailed:
		kind := statusError
		if errors.Is(res.Err, optimize.ErrBudgetUnreachable) {
			kind = statusWarn
		}
		return kind, fmt.Sprintf("%s: %s", res.Kind.Label(), res.Reason())
	default:
		return statusInfo, fmt.Sprintf("%s %s", res.Kind.Label(), humanize.IBytes(uint64(res.Size)))
	}
}

func sizeChange(res outcome.Result) string {
	return fmt.Sprintf("%s -> %s", humanize.IBytes(uint64(res.OriginalSize)), humanize.IBytes(uint64(res.Size)))
}
