package config

import (
	"context"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/sauk2/rmf-ros2/logging"
)

// Watch re-reads path on every filesystem write/create event and pushes
// the newly decoded Config onto the returned channel, closing it when
// ctx is canceled. Decode errors on reload are logged and skipped — a
// transient half-written file should not kill the watcher.
func Watch(ctx context.Context, path string, logger *logging.Logger) (<-chan *Config, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "starting config watcher")
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "watching config %s", path)
	}

	out := make(chan *Config)
	go func() {
		defer watcher.Close()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				data, err := os.ReadFile(path)
				if err != nil {
					logger.Warnw("reading config on reload", "error", err)
					continue
				}
				cfg, err := Parse(data, logger)
				if err != nil {
					logger.Warnw("decoding config on reload; keeping previous config", "error", err)
					continue
				}
				select {
				case out <- cfg:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("config watcher error", "error", err)
			}
		}
	}()
	return out, nil
}
