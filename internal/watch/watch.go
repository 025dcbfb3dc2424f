// Package watch reruns the image pipeline when files land in a directory.
//
// Filesystem events are filtered to matching image names, coalesced over a
// debounce window, and answered with one full pass. Passes run on the
// watching goroutine, so two passes never overlap.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"sitepix/internal/logging"
	"sitepix/internal/scan"
)

// DefaultDebounce is the quiet period before a pass starts.
const DefaultDebounce = 500 * time.Millisecond

// PassFunc runs one pipeline pass over the watched directory.
type PassFunc func(ctx context.Context) error

// Options configures a watcher.
type Options struct {
	Dir      string
	Debounce time.Duration
	// Match selects the file names that trigger a pass. Nil matches every
	// non-hidden file.
	Match func(name string) bool
	// Initial runs a pass immediately on start.
	Initial bool
	Logger  *slog.Logger
}

// Run watches opts.Dir until ctx is cancelled. A pass that fails is logged
// and the watcher keeps going, except when the directory itself is gone.
func Run(ctx context.Context, opts Options, pass PassFunc) error {
	if pass == nil {
		return errors.New("watch: pass function required")
	}
	if _, err := scan.Dir(opts.Dir, nil); err != nil {
		return err
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := logging.NewComponentLogger(opts.Logger, "watch").With(logging.String("dir", opts.Dir))

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(opts.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", opts.Dir, err)
	}
	logger.Info("watching", logging.Duration("debounce", debounce))

	runPass := func(trigger string) error {
		logger.Debug("pass triggered", logging.String("trigger", trigger))
		err := pass(ctx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, scan.ErrDirectoryNotFound):
			return err
		case errors.Is(err, context.Canceled):
			return nil
		default:
			logging.WarnWithContext(logger, "pass failed", "watch_pass_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "changes wait for the next event"),
			)
			return nil
		}
	}

	if opts.Initial {
		if err := runPass("startup"); err != nil {
			return err
		}
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := ""

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event, opts.Match) {
				continue
			}
			pending = filepath.Base(event.Name)
			timer.Reset(debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", logging.Error(err))
		case <-timer.C:
			if err := runPass(pending); err != nil {
				return err
			}
			pending = ""
		}
	}
}

func relevant(event fsnotify.Event, match func(string) bool) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if match == nil {
		return true
	}
	return match(name)
}
