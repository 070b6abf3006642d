package transcriber

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/nguyentantai21042004/transcribe-flow/internal/config"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
)

type openAI struct {
	api      *openai.Client
	model    string
	language string
	prompt   string
	logger   logger.Logger
}

// NewOpenAI creates a Transcriber for the OpenAI audio API. A custom BaseURL points it at any
// OpenAI-compatible server (faster-whisper-server, LocalAI, ...).
func NewOpenAI(cfg config.OpenAIConfig, language, prompt string, log logger.Logger) Transcriber {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &openAI{
		api:      openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		language: language,
		prompt:   prompt,
		logger:   log,
	}
}

func (c *openAI) Name() string {
	return config.EngineOpenAI
}

func (c *openAI) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	req := openai.AudioRequest{
		Model:    c.model,
		FilePath: audioPath,
		Prompt:   c.prompt,
	}
	if c.language != "" && c.language != "auto" {
		req.Language = c.language
	}

	c.logger.Debug(ctx, "Creating transcription with model %s: %s", c.model, audioPath)

	resp, err := c.api.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating transcription: %w", err)
	}

	return &Transcript{
		Text:     strings.TrimSpace(resp.Text),
		Language: c.language,
	}, nil
}
