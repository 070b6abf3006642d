package watcher

import "context"

// Watcher subscribes to file creation under a directory tree.
// Each new file is handled in its own goroutine once its size settles, so the event
// loop never blocks; handlers are expected to serialize the actual work (see queue).
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler is invoked with the path of each new supported media file.
// A returned error or panic is logged and never stops the watcher.
type EventHandler func(ctx context.Context, filePath string) error
