package processor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nguyentantai21042004/transcribe-flow/internal/fsx"
	"github.com/nguyentantai21042004/transcribe-flow/internal/media"
)

// extractAudio writes the first audio stream of videoPath as 16-bit PCM WAV next to it.
// An existing <base>.wav is reused as is. The bool reports whether ffmpeg ran.
func (p *implProcessor) extractAudio(ctx context.Context, videoPath string) (string, bool, error) {
	audioPath := media.DerivedPath(videoPath, media.AudioExt)

	exists, err := fsx.Exists(audioPath)
	if err != nil {
		return "", false, fmt.Errorf("%w: check %s: %w", ErrExtraction, audioPath, err)
	}
	if exists {
		p.logger.Info(ctx, "Skipping extraction, audio already exists: %s", audioPath)
		return audioPath, false, nil
	}

	tmpPath, err := fsx.TempFor(audioPath)
	if err != nil {
		return "", false, fmt.Errorf("%w: reserve output for %s: %w", ErrExtraction, audioPath, err)
	}

	p.logger.Info(ctx, "Extracting audio: %s", videoPath)

	// -vn: drop video
	// -map 0:a:0: first audio stream; fails when the container has none
	// -c:a pcm_s16le: 16-bit signed little-endian PCM
	// -f wav: the temp name carries no extension, so the muxer is explicit
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", videoPath,
		"-vn",
		"-map", "0:a:0",
		"-ar", strconv.Itoa(p.cfg.FFmpeg.SampleRate),
		"-ac", strconv.Itoa(p.cfg.FFmpeg.Channels),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		tmpPath,
	}

	if _, err := p.executor.Execute(ctx, p.cfg.FFmpeg.BinaryPath, args...); err != nil {
		fsx.Discard(tmpPath)
		return "", false, fmt.Errorf("%w: %s: %w", ErrExtraction, videoPath, err)
	}

	if err := fsx.Commit(tmpPath, audioPath); err != nil {
		return "", false, fmt.Errorf("%w: write %s: %w", ErrExtraction, audioPath, err)
	}

	p.logger.Info(ctx, "Audio extracted successfully: %s", audioPath)
	return audioPath, true, nil
}
