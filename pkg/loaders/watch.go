package loaders

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/df07/go-swept-surface/pkg/core"
	"github.com/df07/go-swept-surface/pkg/model"
	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDelay coalesces the burst of events an editor produces for a
// single save
const DefaultWatchDelay = 100 * time.Millisecond

// WatchOptions configures WatchModel
type WatchOptions struct {
	Delay  time.Duration // quiet period before reloading; 0 uses DefaultWatchDelay
	Logger core.Logger   // optional
}

// WatchModel reloads filename whenever it changes and passes the result to
// onChange, until ctx is cancelled. The directory is watched rather than the
// file so that atomic saves (write to temp, rename over) are seen. Load
// errors are delivered to onChange; they do not stop the watch.
func WatchModel(ctx context.Context, filename string, opts WatchOptions, onChange func(*model.Model, error)) error {
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultWatchDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = core.DiscardLogger
	}

	abs, err := filepath.Abs(filename)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", filename, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Printf("👀 Watching %s\n", filename)

	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(delay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf("⚠️  Watch error: %v\n", err)
		case <-timer.C:
			m, err := LoadModel(abs)
			if err != nil {
				logger.Printf("❌ Reload failed: %v\n", err)
			} else {
				logger.Printf("🔄 Reloaded %s: %d keyframes, %d points\n", filename, m.N(), m.M())
			}
			onChange(m, err)
		}
	}
}
