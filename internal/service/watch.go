package service

import (
	"context"

	"github.com/nguyentantai21042004/transcribe-flow/internal/watcher"
)

type watchService struct {
	watcher watcher.Watcher
}

// NewWatch runs w until the run context is done and closes it afterwards.
func NewWatch(w watcher.Watcher) Service {
	return &watchService{watcher: w}
}

func (s *watchService) Name() string { return "watcher" }

func (s *watchService) Run(ctx context.Context) error {
	defer s.watcher.Stop()
	return s.watcher.Start(ctx)
}
