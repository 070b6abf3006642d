package processor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nguyentantai21042004/transcribe-flow/internal/fsx"
	"github.com/nguyentantai21042004/transcribe-flow/internal/media"
)

// transcribe runs the engine over audioPath and persists the flattened text as <base>.txt.
// An existing transcript is read back instead. The bool reports whether inference ran.
func (p *implProcessor) transcribe(ctx context.Context, audioPath string) (string, string, bool, error) {
	transcriptPath := media.DerivedPath(audioPath, media.TranscriptExt)

	exists, err := fsx.Exists(transcriptPath)
	if err != nil {
		return "", "", false, fmt.Errorf("%w: check %s: %w", ErrTranscription, transcriptPath, err)
	}
	if exists {
		p.logger.Info(ctx, "Skipping %s, already transcribed", audioPath)
		data, err := os.ReadFile(transcriptPath)
		if err != nil {
			return "", "", false, fmt.Errorf("%w: read %s: %w", ErrTranscription, transcriptPath, err)
		}
		return transcriptPath, string(data), false, nil
	}

	p.logger.Info(ctx, "Transcribing with %s: %s", p.transcriber.Name(), audioPath)
	start := time.Now()

	tr, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return "", "", false, fmt.Errorf("%w: %s: %w", ErrTranscription, audioPath, err)
	}

	if err := fsx.WriteFileAtomic(transcriptPath, []byte(tr.Text)); err != nil {
		return "", "", false, fmt.Errorf("%w: write %s: %w", ErrTranscription, transcriptPath, err)
	}

	p.logger.Info(ctx, "Transcription saved: %s (%d segments, %s)", transcriptPath, len(tr.Segments), time.Since(start).Round(time.Millisecond))
	return transcriptPath, tr.Text, true, nil
}
