package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nguyentantai21042004/transcribe-flow/internal/config"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
	"github.com/nguyentantai21042004/transcribe-flow/pkg/executor"
)

// whisperCLI runs the whisper.cpp command line binary once per file.
type whisperCLI struct {
	cfg      config.WhisperCLIConfig
	language string
	prompt   string
	executor executor.Executor
	logger   logger.Logger
}

// NewWhisperCLI creates a Transcriber backed by whisper.cpp's whisper-cli.
func NewWhisperCLI(cfg config.WhisperCLIConfig, language, prompt string, exec executor.Executor, log logger.Logger) Transcriber {
	return &whisperCLI{
		cfg:      cfg,
		language: language,
		prompt:   prompt,
		executor: exec,
		logger:   log,
	}
}

func (w *whisperCLI) Name() string {
	return config.EngineWhisperCLI
}

// whisperJSON is the document written by `whisper-cli -oj`.
type whisperJSON struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func (w *whisperCLI) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	outDir, err := os.MkdirTemp("", "whisper-cli-*")
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	// whisper-cli appends .json to the prefix
	outputPrefix := filepath.Join(outDir, "transcript")

	language := w.language
	if language == "" {
		language = "auto"
	}

	// -oj: JSON output with per-segment offsets
	// -np: no progress prints on stdout
	// -bo 5: best of 5 candidates
	args := []string{
		"-m", w.cfg.ModelPath,
		"-f", audioPath,
		"-oj",
		"-np",
		"-l", language,
		"-t", strconv.Itoa(w.cfg.Threads),
		"-bo", "5",
		"--output-file", outputPrefix,
	}
	if w.prompt != "" {
		args = append(args, "--prompt", w.prompt)
	}

	w.logger.Debug(ctx, "Running whisper-cli with %d threads: %s", w.cfg.Threads, audioPath)

	if _, err := w.executor.Execute(ctx, w.cfg.BinaryPath, args...); err != nil {
		return nil, fmt.Errorf("whisper-cli: %w", err)
	}

	data, err := os.ReadFile(outputPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("read whisper-cli output: %w", err)
	}

	var parsed whisperJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse whisper-cli output: %w", err)
	}

	tr := &Transcript{Language: parsed.Result.Language}
	for _, s := range parsed.Transcription {
		tr.Segments = append(tr.Segments, Segment{
			Start: time.Duration(s.Offsets.From) * time.Millisecond,
			End:   time.Duration(s.Offsets.To) * time.Millisecond,
			Text:  s.Text,
		})
	}
	tr.Text = flatten(tr.Segments)

	return tr, nil
}
