package transcriber

import (
	"context"
	"time"
)

// Segment is a timed span of recognized speech.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Transcript is the result of one inference pass. Only Text is persisted; Segments and Language are informational.
type Transcript struct {
	Text     string
	Language string
	Segments []Segment
}

// Transcriber runs speech-to-text over a whole audio file in a single pass.
// Implementations are constructed once at startup and must tolerate repeated sequential calls;
// callers serialize concurrent use through the work queue.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Transcript, error)
	Name() string
}
