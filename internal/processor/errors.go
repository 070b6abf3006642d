package processor

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileNotFound      = errors.New("file not found")
	ErrExtraction        = errors.New("audio extraction failed")
	ErrTranscription     = errors.New("transcription failed")
)
