package export

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/nguyentantai21042004/transcribe-flow/internal/fsx"
)

const (
	fontName  = "Times New Roman"
	fontSize  = 13
	titleSize = 16

	// sentences grouped per paragraph when the transcript is one long line
	sentencesPerParagraph = 5
)

var reSentenceEnd = regexp.MustCompile(`([.!?…])\s+`)

// Docx writes text as a styled document with title as its heading.
func (e *implExporter) Docx(ctx context.Context, title, text, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new document: %w", err)
	}

	addRun(doc.AddParagraph(""), title, true, titleSize)
	doc.AddParagraph("")

	for _, para := range paragraphs(text) {
		addRun(doc.AddParagraph(""), para, false, fontSize)
	}

	tmp, err := fsx.TempFor(outputPath)
	if err != nil {
		return fmt.Errorf("reserve %s: %w", outputPath, err)
	}
	if err := doc.SaveTo(tmp); err != nil {
		fsx.Discard(tmp)
		return fmt.Errorf("save docx: %w", err)
	}
	if err := fsx.Commit(tmp, outputPath); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}

	e.logger.Info(ctx, "Transcript exported: %s", outputPath)
	return nil
}

// paragraphs keeps existing line breaks; a single unbroken line is chunked by sentences.
func paragraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	if len(out) != 1 {
		return out
	}

	sentences := splitSentences(out[0])
	out = out[:0]
	for i := 0; i < len(sentences); i += sentencesPerParagraph {
		end := min(i+sentencesPerParagraph, len(sentences))
		out = append(out, strings.Join(sentences[i:end], " "))
	}
	return out
}

func splitSentences(s string) []string {
	marked := reSentenceEnd.ReplaceAllString(s, "$1\x00")
	var out []string
	for _, part := range strings.Split(marked, "\x00") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
