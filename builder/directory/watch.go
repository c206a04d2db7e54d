package directory

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the directory whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file on save
// are still seen.
func (d *Directory) Watch(ctx context.Context, debounce time.Duration) error {
	if d.path == "" {
		<-ctx.Done()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	abs, err := filepath.Abs(d.path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	d.logger.Info("watching directory file", "path", abs)

	// Debounce timer
	var timer *time.Timer
	reload := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Ignore chmod and other meta events
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			if err := d.Reload(); err != nil {
				d.logger.Warn("directory reload failed, keeping previous data", "error", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("directory watcher error", "error", err)
		}
	}
}
