package processor

import (
	"context"

	"github.com/nguyentantai21042004/transcribe-flow/internal/media"
)

// Processor turns one media file into a transcript next to it.
type Processor interface {
	Process(ctx context.Context, mediaPath string) (*Result, error)
}

// Result describes the artifacts of one Process call.
type Result struct {
	Source         string
	Kind           media.Kind
	AudioPath      string // equals Source for audio inputs
	TranscriptPath string
	DocxPath       string // empty unless docx export is enabled
	Text           string

	// Extracted and Transcribed report whether the stage did work in this call
	// or found its artifact already present.
	Extracted   bool
	Transcribed bool
}
