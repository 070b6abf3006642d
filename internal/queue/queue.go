package queue

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
	"github.com/nguyentantai21042004/transcribe-flow/internal/media"
	"github.com/nguyentantai21042004/transcribe-flow/internal/processor"
)

type job struct {
	id        string
	key       string
	path      string
	submitted time.Time

	// done is closed once res and err are final.
	done chan struct{}
	res  *processor.Result
	err  error
}

func (j *job) finish(res *processor.Result, err error) {
	j.res, j.err = res, err
	close(j.done)
}

// Key is the transcript path a media file resolves to.
// A video and the audio extracted from it share a key.
func Key(mediaPath string) string {
	return media.DerivedPath(filepath.Clean(mediaPath), media.TranscriptExt)
}

func (q *implQueue) Submit(ctx context.Context, mediaPath string) (*processor.Result, error) {
	key := Key(mediaPath)

	q.mu.Lock()
	if j, ok := q.inflight[key]; ok {
		q.mu.Unlock()
		q.logger.Debug(ctx, "Joining in-flight job %s for %s", j.id, key)
		return q.wait(ctx, j)
	}
	j := &job{
		id:        uuid.New().String(),
		key:       key,
		path:      mediaPath,
		submitted: time.Now(),
		done:      make(chan struct{}),
	}
	q.inflight[key] = j
	q.mu.Unlock()

	if err := q.enqueue(ctx, j); err != nil {
		q.release(j)
		j.finish(nil, err)
		return nil, err
	}

	q.logger.Debug(ctx, "Queued job %s: %s", j.id, mediaPath)
	return q.wait(ctx, j)
}

func (q *implQueue) enqueue(ctx context.Context, j *job) error {
	q.sendMu.RLock()
	defer q.sendMu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	select {
	case q.jobs <- j:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *implQueue) wait(ctx context.Context, j *job) (*processor.Result, error) {
	select {
	case <-j.done:
		return j.res, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *implQueue) release(j *job) {
	q.mu.Lock()
	if q.inflight[j.key] == j {
		delete(q.inflight, j.key)
	}
	q.mu.Unlock()
}

func (q *implQueue) Pending() int {
	return len(q.jobs)
}

// Start launches the workers. Jobs run on a context detached from ctx's
// cancellation so Stop can let in-flight work finish.
func (q *implQueue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		base := context.WithoutCancel(ctx)
		q.logger.Info(ctx, "Queue started (workers: %d, capacity: %d)", q.workers, cap(q.jobs))
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.worker(base)
		}
	})
}

// Stop refuses new jobs, waits for running ones, and fails whatever is still queued with ErrClosed.
func (q *implQueue) Stop() {
	q.stopOnce.Do(func() {
		close(q.done)

		q.sendMu.Lock()
		q.closed = true
		q.sendMu.Unlock()

		q.wg.Wait()

		for {
			select {
			case j := <-q.jobs:
				q.release(j)
				j.finish(nil, ErrClosed)
			default:
				return
			}
		}
	})
}

func (q *implQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		// Prefer shutdown over picking up more work.
		select {
		case <-q.done:
			return
		default:
		}

		select {
		case <-q.done:
			return
		case j := <-q.jobs:
			q.run(ctx, j)
		}
	}
}

func (q *implQueue) run(ctx context.Context, j *job) {
	ctx = logger.ContextWithRequestID(ctx, j.id)
	q.logger.Info(ctx, "Starting job for %s (waited %s)", j.path, time.Since(j.submitted).Round(time.Millisecond))

	res, err := q.safeProcess(ctx, j.path)

	q.release(j)
	j.finish(res, err)

	if err != nil {
		q.logger.Error(ctx, "Job failed for %s: %v", j.path, err)
	}
}

func (q *implQueue) safeProcess(ctx context.Context, path string) (res *processor.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return q.processor.Process(ctx, path)
}
