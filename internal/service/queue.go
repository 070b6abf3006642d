package service

import (
	"context"

	"github.com/nguyentantai21042004/transcribe-flow/internal/queue"
)

type queueService struct {
	queue queue.Queue
}

// NewQueue runs the workers of q until the run context is done.
// Stopping fails queued jobs, which releases adapters still waiting on them.
func NewQueue(q queue.Queue) Service {
	return &queueService{queue: q}
}

func (s *queueService) Name() string { return "queue" }

func (s *queueService) Run(ctx context.Context) error {
	s.queue.Start(ctx)
	<-ctx.Done()
	s.queue.Stop()
	return nil
}
