package watcher

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/transcribe-flow/internal/config"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
)

// New creates a new Watcher instance with watches registered on root and every directory below it.
func New(root string, cfg config.WatchConfig, handler EventHandler, log logger.Logger) (Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	settle := cfg.Settle
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}

	w := &implWatcher{
		root:        root,
		settle:      settle,
		initialScan: cfg.InitialScan,
		handler:     handler,
		logger:      log,
		watcher:     fw,
	}

	if _, err := w.addRecursive(root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return w, nil
}
