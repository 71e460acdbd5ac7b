package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/yanorepuser4/dagster/internal/debounce"
)

const watchDebounceDelay = 350 * time.Millisecond

// Watch calls onChange, debounced, whenever the file at path is written,
// created, renamed or removed. It watches the parent directory so editors
// that replace the file atomically are still seen. Watch blocks until ctx
// is done.
func Watch(ctx context.Context, path string, log logrus.FieldLogger, onChange func()) error {
	if log == nil {
		log = discardLogger()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	d := debounce.New(watchDebounceDelay, onChange)
	defer d.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.WithFields(logrus.Fields{
				"op":   ev.Op.String(),
				"path": ev.Name,
			}).Debug("Snapshot changed")
			d.Trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Snapshot watcher error")
		}
	}
}
