package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchPricing loads overrides from path and reloads them whenever the file
// changes, until ctx is cancelled. A file that fails to parse is logged and
// the previous table stays active. The watcher follows the parent directory
// so editors that replace the file by rename are picked up.
func (c *Catalog) WatchPricing(ctx context.Context, path string, logger *slog.Logger) error {
	table, err := LoadPricing(path)
	if err != nil {
		return err
	}
	c.SetOverrides(table)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating pricing watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching pricing dir: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				table, err := LoadPricing(path)
				if err != nil {
					logger.Warn("keeping previous pricing overrides", "path", path, "error", err)
					continue
				}
				c.SetOverrides(table)
				logger.Info("reloaded pricing overrides", "path", path, "models", len(table))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("pricing watcher error", "error", err)
			}
		}
	}()

	return nil
}
