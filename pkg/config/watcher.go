package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/particula/pkg/errors"
)

// DefaultDebounce groups the burst of events an editor emits on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a config file when it changes on disk.
//
// The parent directory is watched rather than the file itself so that
// editors which replace the file on save keep being tracked. Invalid
// files are logged and skipped; the last good config stays in effect.
type Watcher struct {
	Path     string
	OnChange func(*Config)
	Logger   *log.Logger
	Debounce time.Duration
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create file watcher")
	}
	defer fw.Close()

	dir := filepath.Dir(w.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create config directory")
	}
	if err := fw.Add(dir); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "watch %s", dir)
	}
	logger.Debug("watching config", "path", w.Path)

	target := filepath.Clean(w.Path)
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "err", err)
		case <-timer.C:
			cfg, err := Load(w.Path)
			if err != nil {
				logger.Warn("config reload failed, keeping previous", "path", w.Path, "err", errors.UserMessage(err))
				continue
			}
			logger.Info("config reloaded", "path", w.Path)
			if w.OnChange != nil {
				w.OnChange(cfg)
			}
		}
	}
}
