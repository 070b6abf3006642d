package export

import "context"

// Exporter renders a finished transcript into additional document formats.
type Exporter interface {
	Docx(ctx context.Context, title, text, outputPath string) error
}
