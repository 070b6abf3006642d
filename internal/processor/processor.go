package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/transcribe-flow/internal/fsx"
	"github.com/nguyentantai21042004/transcribe-flow/internal/media"
)

// Process classifies mediaPath and routes it through extraction (video only) and transcription.
func (p *implProcessor) Process(ctx context.Context, mediaPath string) (*Result, error) {
	startTime := time.Now()

	kind := media.Classify(mediaPath)
	if kind == media.Unsupported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mediaPath)
	}

	exists, err := fsx.Exists(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFileNotFound, mediaPath, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, mediaPath)
	}

	p.logger.Info(ctx, "Processing %s: %s", kind, mediaPath)

	res := &Result{
		Source:    mediaPath,
		Kind:      kind,
		AudioPath: mediaPath,
	}

	// Step 1: Extract audio (video only)
	if kind == media.Video {
		audioPath, extracted, err := p.extractAudio(ctx, mediaPath)
		if err != nil {
			return nil, err
		}
		res.AudioPath = audioPath
		res.Extracted = extracted
	}

	// Step 2: Transcribe
	transcriptPath, text, transcribed, err := p.transcribe(ctx, res.AudioPath)
	if err != nil {
		return nil, err
	}
	res.TranscriptPath = transcriptPath
	res.Text = text
	res.Transcribed = transcribed

	// Step 3: Optional docx export, never fatal
	if p.exporter != nil {
		docxPath, err := p.exportDocx(ctx, transcriptPath, text)
		if err != nil {
			p.logger.Warn(ctx, "Failed to export docx for %s: %v", transcriptPath, err)
		} else {
			res.DocxPath = docxPath
		}
	}

	p.logger.Info(ctx, "Completed %s -> %s in %s", mediaPath, transcriptPath, time.Since(startTime).Round(time.Millisecond))
	return res, nil
}

func (p *implProcessor) exportDocx(ctx context.Context, transcriptPath, text string) (string, error) {
	docxPath := media.DerivedPath(transcriptPath, media.DocxExt)

	exists, err := fsx.Exists(docxPath)
	if err != nil {
		return "", err
	}
	if exists {
		return docxPath, nil
	}

	title := strings.TrimSuffix(filepath.Base(transcriptPath), filepath.Ext(transcriptPath))
	if err := p.exporter.Docx(ctx, title, text, docxPath); err != nil {
		return "", err
	}
	return docxPath, nil
}
