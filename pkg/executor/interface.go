package executor

import "context"

// Executor runs external programs such as ffmpeg and whisper-cli.
type Executor interface {
	// Execute runs name with args and returns its stdout. stderr is folded into the error on failure.
	Execute(ctx context.Context, name string, args ...string) (string, error)
	// LookPath resolves name to an executable path.
	LookPath(name string) (string, error)
}
