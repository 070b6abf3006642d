package queue

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/transcribe-flow/internal/processor"
)

// ErrClosed is returned by Submit once the queue has been stopped.
var ErrClosed = errors.New("queue closed")

// Queue funnels processing through a fixed pool of workers.
// Jobs are keyed by their transcript path; concurrent submissions of the same key
// share a single execution and its result.
type Queue interface {
	// Submit enqueues mediaPath and waits for its result. It blocks while the queue is full.
	Submit(ctx context.Context, mediaPath string) (*processor.Result, error)
	// Pending reports the number of jobs waiting for a worker.
	Pending() int
	Start(ctx context.Context)
	Stop()
}
