package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/transcribe-flow/internal/discovery"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
	"github.com/nguyentantai21042004/transcribe-flow/internal/media"
)

type implWatcher struct {
	root        string
	settle      time.Duration
	initialScan bool
	handler     EventHandler
	logger      logger.Logger
	watcher     *fsnotify.Watcher
	wg          sync.WaitGroup
}

// Start handles creation events until ctx is done, then waits for handlers still running.
// When configured, files already present are handled once watches are in place.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started. Monitoring: %s", w.root)
	w.logger.Info(ctx, "Supported formats: %s", strings.Join(media.Extensions(), ", "))

	if w.initialScan {
		w.wg.Add(1)
		go w.scan(ctx, w.root)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for ongoing processing to complete...")
			w.wg.Wait()
			w.logger.Info(ctx, "File watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.wg.Wait()
				return fmt.Errorf("watcher events channel closed")
			}

			// Only process CREATE events
			if event.Op&fsnotify.Create == fsnotify.Create {
				w.onCreate(ctx, event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.wg.Wait()
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *implWatcher) onCreate(ctx context.Context, path string) {
	fi, err := os.Lstat(path)
	if err != nil {
		// Gone already, e.g. a temp file renamed away.
		return
	}

	if fi.IsDir() {
		n, err := w.addRecursive(path)
		if err != nil {
			w.logger.Error(ctx, "Failed to watch new directory %s: %v", path, err)
			return
		}
		w.logger.Info(ctx, "Watching new directory: %s (%d dirs)", path, n)

		// Files may have landed before the watch was in place.
		w.wg.Add(1)
		go w.scan(ctx, path)
		return
	}

	if !fi.Mode().IsRegular() {
		return
	}
	if !media.IsSupported(path) {
		w.logger.Debug(ctx, "Ignoring unsupported file: %s", path)
		return
	}

	w.logger.Info(ctx, "New %s detected: %s", media.Classify(path), path)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		if err := w.waitSettled(ctx, path); err != nil {
			w.logger.Warn(ctx, "Skipping %s: %v", path, err)
			return
		}
		w.handle(ctx, path)
	}()
}

// scan hands every supported file under dir to the handler, one at a time.
func (w *implWatcher) scan(ctx context.Context, dir string) {
	defer w.wg.Done()

	count := 0
	for path, err := range discovery.Walk(dir) {
		if err != nil {
			w.logger.Error(ctx, "Scan of %s failed: %v", dir, err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		w.handle(ctx, path)
		count++
	}
	w.logger.Info(ctx, "Scan of %s complete: %d files", dir, count)
}

// handle runs the handler inside a failure boundary.
func (w *implWatcher) handle(ctx context.Context, path string) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error(ctx, "Panic while processing %s: %v", path, r)
		}
	}()

	if err := w.handler(ctx, path); err != nil {
		w.logger.Error(ctx, "Failed to process %s: %v", path, err)
	}
}

// waitSettled blocks until the size of path stops changing between two polls.
func (w *implWatcher) waitSettled(ctx context.Context, path string) error {
	var last int64 = -1
	ticker := time.NewTicker(w.settle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		fi, err := os.Stat(path)
		if err != nil {
			return err
		}
		if fi.Size() == last {
			return nil
		}
		last = fi.Size()
	}
}

// addRecursive registers root and every directory below it.
func (w *implWatcher) addRecursive(root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path != root && errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		count++
		return nil
	})
	return count, err
}
