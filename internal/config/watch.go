package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/textcore/internal/logging"
)

// DefaultDebounce is how long Watch waits for a burst of file events to
// settle before reloading.
const DefaultDebounce = 100 * time.Millisecond

// Watch calls onChange with the reloaded configuration whenever the file
// at path is written or replaced, until ctx is done. Reload errors are
// logged and the previous configuration stays in effect.
//
// The directory is watched rather than the file so that editors which
// save by renaming a temporary file are seen.
func Watch(ctx context.Context, path string, logger *logging.Logger, onChange func(*Config)) error {
	return WatchFile(ctx, path, DefaultDebounce, logger, func() {
		cfg, err := Load(path)
		if err != nil {
			logger.WithComponent("config").Warn("reload failed: %v", err)
			return
		}
		onChange(cfg)
	})
}

// WatchFile calls fn after the file at path was created, written or
// renamed onto, once no further event arrived for debounce.
func WatchFile(ctx context.Context, path string, debounce time.Duration, logger *logging.Logger, fn func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	log := logger.WithComponent("watch").WithField("path", abs)
	log.Debug("watching")

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				log.Debug("event %s", ev.Op)
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error: %v", err)
		case <-timer.C:
			fn()
		}
	}
}
