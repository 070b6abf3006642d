package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/transcribe-flow/internal/config"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
)

// whisperServer talks to a running whisper.cpp HTTP server (whisper-server).
type whisperServer struct {
	baseURL    string
	language   string
	httpClient *http.Client
	logger     logger.Logger
}

// NewWhisperServer creates a Transcriber that posts audio to whisper-server's /inference endpoint.
func NewWhisperServer(cfg config.WhisperServerConfig, language string, log logger.Logger) Transcriber {
	return &whisperServer{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		language: language,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log,
	}
}

func (c *whisperServer) Name() string {
	return config.EngineWhisperServer
}

func (c *whisperServer) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	audioFile, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer audioFile.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audioFile); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	writer.WriteField("response_format", "json")
	writer.WriteField("temperature", "0.0")
	if c.language != "" && c.language != "auto" {
		writer.WriteField("language", c.language)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	url := c.baseURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug(ctx, "Sending %s to whisper-server at %s", audioPath, url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper-server request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper-server error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Text  string `json:"text"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse whisper-server response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("whisper-server: %s", parsed.Error)
	}

	return &Transcript{
		Text:     strings.TrimSpace(parsed.Text),
		Language: c.language,
	}, nil
}
