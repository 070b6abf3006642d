package transcriber

import (
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/transcribe-flow/internal/config"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
	"github.com/nguyentantai21042004/transcribe-flow/pkg/executor"
)

// New builds the engine selected by cfg.Name.
func New(cfg config.EngineConfig, exec executor.Executor, log logger.Logger) (Transcriber, error) {
	switch cfg.Name {
	case config.EngineWhisperCLI:
		return NewWhisperCLI(cfg.WhisperCLI, cfg.Language, cfg.Prompt, exec, log), nil
	case config.EngineWhisperServer:
		return NewWhisperServer(cfg.WhisperServer, cfg.Language, log), nil
	case config.EngineOpenAI:
		return NewOpenAI(cfg.OpenAI, cfg.Language, cfg.Prompt, log), nil
	case config.EngineGemini:
		return NewGemini(cfg.Gemini, cfg.Language, cfg.Prompt, log)
	default:
		return nil, fmt.Errorf("unknown transcription engine: %q", cfg.Name)
	}
}

// flatten joins segment texts into one body, collapsing the leading spaces whisper emits.
func flatten(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
