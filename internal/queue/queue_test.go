package queue

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nguyentantai21042004/transcribe-flow/internal/config"
	"github.com/nguyentantai21042004/transcribe-flow/internal/processor"
)

type fakeProcessor struct {
	gate    chan struct{}
	started chan string
	calls   atomic.Int32
	panics  bool
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{gate: make(chan struct{}), started: make(chan string, 16)}
}

func (f *fakeProcessor) Process(ctx context.Context, mediaPath string) (*processor.Result, error) {
	f.calls.Add(1)
	f.started <- mediaPath
	<-f.gate
	if f.panics {
		panic("boom")
	}
	if strings.HasSuffix(mediaPath, ".png") {
		return nil, processor.ErrUnsupportedFormat
	}
	return &processor.Result{Source: mediaPath, TranscriptPath: Key(mediaPath), Text: "text of " + filepath.Base(mediaPath)}, nil
}

// recordingLogger signals every message that starts with a watched prefix.
type recordingLogger struct {
	prefix string
	hits   chan string
}

func (l *recordingLogger) record(msg string, args []interface{}) {
	if l.prefix != "" && strings.HasPrefix(msg, l.prefix) {
		l.hits <- fmt.Sprintf(msg, args...)
	}
}

func (l *recordingLogger) Debug(_ context.Context, msg string, args ...interface{}) { l.record(msg, args) }
func (l *recordingLogger) Info(_ context.Context, msg string, args ...interface{})  { l.record(msg, args) }
func (l *recordingLogger) Warn(_ context.Context, msg string, args ...interface{})  { l.record(msg, args) }
func (l *recordingLogger) Error(_ context.Context, msg string, args ...interface{}) { l.record(msg, args) }

func newLogger(prefix string) *recordingLogger {
	return &recordingLogger{prefix: prefix, hits: make(chan string, 16)}
}

type outcome struct {
	res *processor.Result
	err error
}

func submitAsync(q Queue, ctx context.Context, path string) <-chan outcome {
	ch := make(chan outcome, 1)
	go func() {
		res, err := q.Submit(ctx, path)
		ch <- outcome{res, err}
	}()
	return ch
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"uploads/clip.mp4", "uploads/clip.txt"},
		{"uploads/clip.wav", "uploads/clip.txt"},
		{"./uploads//speech.MP3", "uploads/speech.txt"},
		{"/data/a.b.mkv", "/data/a.b.txt"},
	}
	for _, tt := range tests {
		if got := Key(tt.path); got != filepath.FromSlash(tt.want) {
			t.Errorf("Key(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSubmit(t *testing.T) {
	proc := newFakeProcessor()
	close(proc.gate)
	q := New(config.QueueConfig{Workers: 2, Capacity: 4}, proc, newLogger(""))
	q.Start(context.Background())
	defer q.Stop()

	res, err := q.Submit(context.Background(), "media/speech.mp3")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.Text != "text of speech.mp3" {
		t.Errorf("Text = %q", res.Text)
	}

	if _, err := q.Submit(context.Background(), "media/image.png"); !errors.Is(err, processor.ErrUnsupportedFormat) {
		t.Errorf("Submit() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestSubmitCoalescesSameKey(t *testing.T) {
	proc := newFakeProcessor()
	log := newLogger("Joining in-flight job")
	q := New(config.QueueConfig{Workers: 2, Capacity: 4}, proc, log)
	q.Start(context.Background())
	defer q.Stop()

	ctx := context.Background()
	first := submitAsync(q, ctx, "media/clip.mp4")
	<-proc.started

	// The extracted audio of the same clip resolves to the same transcript.
	second := submitAsync(q, ctx, "media/clip.wav")
	<-log.hits

	close(proc.gate)
	a, b := <-first, <-second
	if a.err != nil || b.err != nil {
		t.Fatalf("errors = %v, %v", a.err, b.err)
	}
	if a.res != b.res {
		t.Error("coalesced submissions should share one result")
	}
	if n := proc.calls.Load(); n != 1 {
		t.Errorf("Process calls = %d, want 1", n)
	}

	// Once finished, the key is free again.
	if _, err := q.Submit(ctx, "media/clip.mp4"); err != nil {
		t.Fatal(err)
	}
	if n := proc.calls.Load(); n != 2 {
		t.Errorf("Process calls = %d, want 2", n)
	}
}

func TestSubmitBackpressure(t *testing.T) {
	proc := newFakeProcessor()
	q := New(config.QueueConfig{Workers: 1, Capacity: 1}, proc, newLogger(""))
	q.Start(context.Background())
	defer q.Stop()

	ctx := context.Background()
	running := submitAsync(q, ctx, "a.mp3")
	<-proc.started
	queued := submitAsync(q, ctx, "b.mp3")
	waitFor(t, func() bool { return q.Pending() == 1 })

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := q.Submit(short, "c.mp3"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit() on a full queue error = %v, want DeadlineExceeded", err)
	}

	close(proc.gate)
	if o := <-running; o.err != nil {
		t.Error(o.err)
	}
	if o := <-queued; o.err != nil {
		t.Error(o.err)
	}

	// The rejected key was released.
	if _, err := q.Submit(ctx, "c.mp3"); err != nil {
		t.Errorf("resubmit error = %v", err)
	}
}

func TestSubmitSerializesWithOneWorker(t *testing.T) {
	proc := newFakeProcessor()
	q := New(config.QueueConfig{Workers: 1, Capacity: 8}, proc, newLogger(""))
	q.Start(context.Background())
	defer q.Stop()

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Submit(context.Background(), fmt.Sprintf("%d.mp3", i))
		}()
	}

	for range 4 {
		<-proc.started
		select {
		case p := <-proc.started:
			t.Fatalf("%s started while another job was running", p)
		case <-time.After(20 * time.Millisecond):
		}
		proc.gate <- struct{}{}
	}
	wg.Wait()
}

func TestStop(t *testing.T) {
	proc := newFakeProcessor()
	q := New(config.QueueConfig{Workers: 1, Capacity: 4}, proc, newLogger(""))
	q.Start(context.Background())

	ctx := context.Background()
	running := submitAsync(q, ctx, "a.mp3")
	<-proc.started
	queued := submitAsync(q, ctx, "b.mp3")
	waitFor(t, func() bool { return q.Pending() == 1 })

	stopped := make(chan struct{})
	go func() {
		q.Stop()
		close(stopped)
	}()
	impl := q.(*implQueue)
	waitFor(t, func() bool {
		select {
		case <-impl.done:
			return true
		default:
			return false
		}
	})

	close(proc.gate)
	<-stopped

	if o := <-running; o.err != nil {
		t.Errorf("in-flight job error = %v, want it to finish", o.err)
	}
	if o := <-queued; !errors.Is(o.err, ErrClosed) {
		t.Errorf("queued job error = %v, want ErrClosed", o.err)
	}
	if _, err := q.Submit(ctx, "c.mp3"); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit() after Stop error = %v, want ErrClosed", err)
	}
	if n := proc.calls.Load(); n != 1 {
		t.Errorf("Process calls = %d, want 1", n)
	}
}

func TestSubmitRecoversPanic(t *testing.T) {
	proc := newFakeProcessor()
	proc.panics = true
	close(proc.gate)
	q := New(config.QueueConfig{}, proc, newLogger(""))
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Submit(context.Background(), "bad.mp3")
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("Submit() error = %v, want PanicError", err)
	}

	// The worker survives.
	proc.panics = false
	if _, err := q.Submit(context.Background(), "good.mp3"); err != nil {
		t.Errorf("Submit() after panic error = %v", err)
	}
}
