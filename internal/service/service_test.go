package service

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
)

var testLog = logger.New("error", "text")

type funcService struct {
	name string
	run  func(ctx context.Context) error
}

func (s funcService) Name() string                  { return s.name }
func (s funcService) Run(ctx context.Context) error { return s.run(ctx) }

func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func TestGroupCancelsOnFailure(t *testing.T) {
	stopped := make(chan struct{})
	g := Group{
		funcService{"broken", func(ctx context.Context) error { return errors.New("bind: address in use") }},
		funcService{"waiter", func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return nil
		}},
	}

	err := g.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "broken: bind: address in use") {
		t.Fatalf("Run() error = %v", err)
	}
	select {
	case <-stopped:
	default:
		t.Error("sibling service was not cancelled")
	}
}

func TestGroupCollectsAllErrors(t *testing.T) {
	g := Group{
		funcService{"a", func(ctx context.Context) error { return errors.New("first") }},
		funcService{"b", func(ctx context.Context) error { return errors.New("second") }},
	}

	err := g.Run(context.Background())
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("Run() error = %T, want *multierror.Error", err)
	}
	if len(merr.Errors) != 2 {
		t.Errorf("errors = %v, want 2", merr.Errors)
	}
}

func TestGroupStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := Group{
		funcService{"a", blockUntilDone},
		funcService{"b", blockUntilDone},
	}

	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestGroupReturnsWhenAllFinish(t *testing.T) {
	g := Group{funcService{"oneshot", func(ctx context.Context) error { return nil }}}
	if err := g.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestHTTPServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	})
	srv := NewHTTPServer(addr, handler, testLog)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("body = %q", body)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestHTTPServerBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	srv := NewHTTPServer(ln.Addr().String(), http.NotFoundHandler(), testLog)
	if err := srv.Run(context.Background()); err == nil {
		t.Error("Run() should fail when the address is taken")
	}
}

type fakeWatcher struct {
	stopped bool
}

func (w *fakeWatcher) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (w *fakeWatcher) Stop() error {
	w.stopped = true
	return nil
}

func TestWatchService(t *testing.T) {
	w := &fakeWatcher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewWatch(w).Run(ctx); err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if !w.stopped {
		t.Error("watcher was not closed")
	}
}
