package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jonwraymond/cachesignal/observe"
)

// watchDebounce batches the bursts of events editors emit on save.
const watchDebounce = 50 * time.Millisecond

// Watch reloads the store whenever its source file changes content. It
// blocks until ctx ends and returns nil in that case.
//
// The directory holding the source is watched rather than the file so
// rename-on-save editors keep working. Writes that leave the content
// unchanged do not reload.
func (s *Store) Watch(ctx context.Context) error {
	s.GetAsync(ctx)
	path := s.Source()
	if path == "" {
		return ErrNoSource
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	name := filepath.Base(path)
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce = time.After(watchDebounce)

		case <-debounce:
			debounce = nil
			raw, err := os.ReadFile(path)
			if err != nil {
				s.logger.Debug(ctx, "config watch: read", observe.F("error", err))
				continue
			}
			if !s.changed(raw) {
				continue
			}
			s.logger.Info(ctx, "config changed, reloading", observe.F("source", path))
			s.Reload(ctx)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn(ctx, "config watch error", observe.F("error", err))
		}
	}
}
