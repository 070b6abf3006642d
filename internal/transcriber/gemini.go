package transcriber

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/transcribe-flow/internal/config"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
	"github.com/nguyentantai21042004/transcribe-flow/internal/media"
)

// maxInlineAudio is the Gemini API limit for inline request data.
const maxInlineAudio = 20 << 20

const geminiPrompt = `Transcribe the speech in this audio verbatim.
Return only the transcript text, without timestamps, speaker labels or commentary.`

type gemini struct {
	apiKeys  []string
	model    string
	language string
	prompt   string
	logger   logger.Logger

	mu         sync.Mutex
	currentKey int
}

// NewGemini creates a Transcriber that sends audio inline to Gemini, rotating through
// the supplied API keys when one is rate limited.
func NewGemini(cfg config.GeminiConfig, language, prompt string, log logger.Logger) (Transcriber, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("gemini: no API keys configured")
	}
	return &gemini{
		apiKeys:  cfg.APIKeys,
		model:    cfg.Model,
		language: language,
		prompt:   prompt,
		logger:   log,
	}, nil
}

func (g *gemini) Name() string {
	return config.EngineGemini
}

func (g *gemini) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	mimeType := media.MIMEType(audioPath)
	if mimeType == "" {
		return nil, fmt.Errorf("gemini: unsupported audio type %s", audioPath)
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("stat audio: %w", err)
	}
	if info.Size() > maxInlineAudio {
		return nil, fmt.Errorf("gemini: %s is %d bytes, inline limit is %d", audioPath, info.Size(), maxInlineAudio)
	}

	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	text, err := g.callGemini(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}

	return &Transcript{
		Text:     strings.TrimSpace(text),
		Language: g.language,
	}, nil
}

func (g *gemini) instructions() string {
	p := geminiPrompt
	if g.language != "" && g.language != "auto" {
		p += fmt.Sprintf("\nThe spoken language is %q.", g.language)
	}
	if g.prompt != "" {
		p += "\nVocabulary hints: " + g.prompt
	}
	return p
}

// callGemini sends the audio and returns the transcript text.
// Rotates API keys on 429 / quota errors.
func (g *gemini) callGemini(ctx context.Context, data []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(g.instructions()),
			genai.NewPartFromBytes(data, mimeType),
		}, genai.RoleUser),
	}

	var lastErr error
	for range len(g.apiKeys) {
		idx, key := g.key()

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			g.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
		if err != nil {
			if isRateLimited(err) {
				g.logger.Warn(ctx, "Gemini key %d rate limited, rotating...", idx+1)
				g.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text strings.Builder
			for _, part := range result.Candidates[0].Content.Parts {
				text.WriteString(part.Text)
			}
			return text.String(), nil
		}

		return "", fmt.Errorf("empty response from Gemini")
	}

	return "", fmt.Errorf("all Gemini API keys exhausted: %w", lastErr)
}

func (g *gemini) key() (int, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentKey, g.apiKeys[g.currentKey]
}

func (g *gemini) rotateKey() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentKey = (g.currentKey + 1) % len(g.apiKeys)
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
