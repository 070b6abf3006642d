package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/nguyentantai21042004/transcribe-flow/internal/api"
	"github.com/nguyentantai21042004/transcribe-flow/internal/config"
	"github.com/nguyentantai21042004/transcribe-flow/internal/export"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
	"github.com/nguyentantai21042004/transcribe-flow/internal/processor"
	"github.com/nguyentantai21042004/transcribe-flow/internal/queue"
	"github.com/nguyentantai21042004/transcribe-flow/internal/service"
	"github.com/nguyentantai21042004/transcribe-flow/internal/transcriber"
	"github.com/nguyentantai21042004/transcribe-flow/internal/watcher"
	"github.com/nguyentantai21042004/transcribe-flow/pkg/executor"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info(ctx, "========================================")
	log.Info(ctx, "Transcription Service")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s, CPU Cores: %d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	log.Info(ctx, "Configuration loaded successfully")

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "Shutting down due to error: %v", err)
		os.Exit(1)
	}
	log.Info(ctx, "Transcription Service stopped")
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if err := ensureDirectories(cfg); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	exec := executor.New()
	if err := checkBinaries(ctx, cfg, exec, log); err != nil {
		return err
	}

	// The engine is built once and shared by every adapter through the queue.
	engine, err := transcriber.New(cfg.Engine, exec, log)
	if err != nil {
		return fmt.Errorf("create transcriber: %w", err)
	}

	var exp export.Exporter
	if cfg.Output.Docx {
		exp = export.New(log)
	}

	proc := processor.New(cfg, exec, engine, exp, log)
	q := queue.New(cfg.Queue, proc, log)

	group := service.Group{service.NewQueue(q)}

	if cfg.Server.Enabled {
		router := api.NewRouter(cfg, q, engine.Name(), log)
		group = append(group, service.NewHTTPServer(cfg.Server.Addr, router, log))
	}

	if cfg.Watch.Enabled {
		w, err := watcher.New(cfg.Paths.Watch, cfg.Watch, func(ctx context.Context, path string) error {
			_, err := q.Submit(ctx, path)
			return err
		}, log)
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		group = append(group, service.NewWatch(w))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Setup graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sigChan:
			log.Info(ctx, "Shutdown signal received: %s", s)
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info(ctx, "========================================")
	log.Info(ctx, "Engine: %s", engine.Name())
	if cfg.Server.Enabled {
		log.Info(ctx, "Upload API: %s (uploads in %s)", cfg.Server.Addr, cfg.Paths.Upload)
	}
	if cfg.Watch.Enabled {
		log.Info(ctx, "Monitoring: %s (initial scan: %t)", cfg.Paths.Watch, cfg.Watch.InitialScan)
	}
	log.Info(ctx, "Workers: %d, queue capacity: %d", cfg.Queue.Workers, cfg.Queue.Capacity)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	return group.Run(ctx)
}

// checkBinaries resolves the external programs the configuration relies on.
// A missing ffmpeg only disables video input; a missing whisper-cli is fatal.
func checkBinaries(ctx context.Context, cfg *config.Config, exec executor.Executor, log logger.Logger) error {
	if path, err := exec.LookPath(cfg.FFmpeg.BinaryPath); err != nil {
		log.Warn(ctx, "ffmpeg not found (%v); video files will fail extraction", err)
	} else {
		log.Info(ctx, "Using ffmpeg: %s", path)
	}

	if cfg.Engine.Name == config.EngineWhisperCLI {
		path, err := exec.LookPath(cfg.Engine.WhisperCLI.BinaryPath)
		if err != nil {
			return fmt.Errorf("whisper-cli: %w", err)
		}
		log.Info(ctx, "Using whisper-cli: %s", path)

		if _, err := os.Stat(cfg.Engine.WhisperCLI.ModelPath); err != nil {
			return fmt.Errorf("whisper model: %w", err)
		}
	}
	return nil
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	var dirs []string
	if cfg.Server.Enabled {
		dirs = append(dirs, cfg.Paths.Upload)
	}
	if cfg.Watch.Enabled {
		dirs = append(dirs, cfg.Paths.Watch)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
