package queue

import (
	"sync"

	"github.com/nguyentantai21042004/transcribe-flow/internal/config"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
	"github.com/nguyentantai21042004/transcribe-flow/internal/processor"
)

type implQueue struct {
	processor processor.Processor
	logger    logger.Logger
	workers   int

	jobs chan *job
	done chan struct{}
	wg   sync.WaitGroup

	// sendMu guards closed against in-progress sends to jobs.
	sendMu sync.RWMutex
	closed bool

	mu       sync.Mutex
	inflight map[string]*job

	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a new Queue instance. Workers are not running until Start.
func New(cfg config.QueueConfig, proc processor.Processor, log logger.Logger) Queue {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 64
	}

	return &implQueue{
		processor: proc,
		logger:    log,
		workers:   workers,
		jobs:      make(chan *job, capacity),
		done:      make(chan struct{}),
		inflight:  make(map[string]*job),
	}
}
