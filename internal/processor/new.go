package processor

import (
	"github.com/nguyentantai21042004/transcribe-flow/internal/config"
	"github.com/nguyentantai21042004/transcribe-flow/internal/export"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
	"github.com/nguyentantai21042004/transcribe-flow/internal/transcriber"
	"github.com/nguyentantai21042004/transcribe-flow/pkg/executor"
)

type implProcessor struct {
	cfg         *config.Config
	executor    executor.Executor
	transcriber transcriber.Transcriber
	exporter    export.Exporter
	logger      logger.Logger
}

// New creates a new Processor instance. exp may be nil to disable docx export.
func New(cfg *config.Config, exec executor.Executor, engine transcriber.Transcriber, exp export.Exporter, log logger.Logger) Processor {
	return &implProcessor{
		cfg:         cfg,
		executor:    exec,
		transcriber: engine,
		exporter:    exp,
		logger:      log,
	}
}
