package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nguyentantai21042004/transcribe-flow/internal/config"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
)

var testLog = logger.New("error", "text")

type fakeExecutor struct {
	name   string
	args   []string
	output string
	err    error
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.name = name
	f.args = args
	if f.err != nil {
		return "", f.err
	}
	for i, a := range args {
		if a == "--output-file" && i+1 < len(args) {
			if err := os.WriteFile(args[i+1]+".json", []byte(f.output), 0644); err != nil {
				return "", err
			}
		}
	}
	return "", nil
}

func (f *fakeExecutor) LookPath(name string) (string, error) {
	return name, nil
}

func writeAudio(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("RIFF....WAVEfmt "), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const whisperOutput = `{
  "result": {"language": "en"},
  "transcription": [
    {"timestamps": {"from": "00:00:00,000", "to": "00:00:02,500"}, "offsets": {"from": 0, "to": 2500}, "text": " Hello there."},
    {"timestamps": {"from": "00:00:02,500", "to": "00:00:04,000"}, "offsets": {"from": 2500, "to": 4000}, "text": " General Kenobi."},
    {"timestamps": {"from": "00:00:04,000", "to": "00:00:05,000"}, "offsets": {"from": 4000, "to": 5000}, "text": "  "}
  ]
}`

func TestWhisperCLITranscribe(t *testing.T) {
	exec := &fakeExecutor{output: whisperOutput}
	cfg := config.WhisperCLIConfig{BinaryPath: "whisper-cli", ModelPath: "models/ggml-base.bin", Threads: 4}
	w := NewWhisperCLI(cfg, "", "Kenobi", exec, testLog)

	audio := writeAudio(t, "speech.wav")
	tr, err := w.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if tr.Text != "Hello there. General Kenobi." {
		t.Errorf("Text = %q", tr.Text)
	}
	if tr.Language != "en" {
		t.Errorf("Language = %q, want en", tr.Language)
	}
	if len(tr.Segments) != 3 || tr.Segments[1].Start != 2500*time.Millisecond {
		t.Errorf("Segments = %+v", tr.Segments)
	}

	if exec.name != "whisper-cli" {
		t.Errorf("binary = %q", exec.name)
	}
	joined := strings.Join(exec.args, " ")
	for _, want := range []string{"-m models/ggml-base.bin", "-f " + audio, "-oj", "-l auto", "-t 4", "--prompt Kenobi"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

func TestWhisperCLIFailure(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exit status 1")}
	w := NewWhisperCLI(config.WhisperCLIConfig{BinaryPath: "whisper-cli"}, "en", "", exec, testLog)

	if _, err := w.Transcribe(context.Background(), writeAudio(t, "a.wav")); err == nil {
		t.Error("Transcribe() should fail when whisper-cli fails")
	}
}

func TestWhisperCLIBadOutput(t *testing.T) {
	exec := &fakeExecutor{output: "not json"}
	w := NewWhisperCLI(config.WhisperCLIConfig{BinaryPath: "whisper-cli"}, "en", "", exec, testLog)

	if _, err := w.Transcribe(context.Background(), writeAudio(t, "a.wav")); err == nil {
		t.Error("Transcribe() should fail on unparsable output")
	}
}

func TestWhisperServerTranscribe(t *testing.T) {
	var gotFile, gotLang, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			http.NotFound(w, r)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		io.Copy(io.Discard, f)
		gotFile = hdr.Filename
		gotLang = r.FormValue("language")
		gotFormat = r.FormValue("response_format")
		fmt.Fprint(w, `{"text": " hello from the server \n"}`)
	}))
	defer srv.Close()

	c := NewWhisperServer(config.WhisperServerConfig{URL: srv.URL + "/", Timeout: 5 * time.Second}, "de", testLog)
	tr, err := c.Transcribe(context.Background(), writeAudio(t, "speech.wav"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if tr.Text != "hello from the server" {
		t.Errorf("Text = %q", tr.Text)
	}
	if gotFile != "speech.wav" || gotLang != "de" || gotFormat != "json" {
		t.Errorf("form = file %q lang %q format %q", gotFile, gotLang, gotFormat)
	}
}

func TestWhisperServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "failed to read audio", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewWhisperServer(config.WhisperServerConfig{URL: srv.URL, Timeout: 5 * time.Second}, "", testLog)
	_, err := c.Transcribe(context.Background(), writeAudio(t, "a.wav"))
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Transcribe() error = %v, want status 500", err)
	}
}

func TestWhisperServerMissingFile(t *testing.T) {
	c := NewWhisperServer(config.WhisperServerConfig{URL: "http://127.0.0.1:1"}, "", testLog)
	if _, err := c.Transcribe(context.Background(), "/nonexistent/a.wav"); err == nil {
		t.Error("Transcribe() should fail for a missing file")
	}
}

func TestOpenAITranscribe(t *testing.T) {
	var gotPath, gotModel, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"text": "transcribed by a compatible server"}`)
	}))
	defer srv.Close()

	c := NewOpenAI(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Model: "whisper-1"}, "en", "", testLog)
	tr, err := c.Transcribe(context.Background(), writeAudio(t, "speech.mp3"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if tr.Text != "transcribed by a compatible server" {
		t.Errorf("Text = %q", tr.Text)
	}
	if gotPath != "/v1/audio/transcriptions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotModel != "whisper-1" {
		t.Errorf("model = %q", gotModel)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth = %q", gotAuth)
	}
}

func TestGeminiRequiresKeys(t *testing.T) {
	if _, err := NewGemini(config.GeminiConfig{}, "", "", testLog); err == nil {
		t.Error("NewGemini() should fail without keys")
	}
}

func TestGeminiRejectsBeforeCalling(t *testing.T) {
	g, err := NewGemini(config.GeminiConfig{APIKeys: []string{"k"}, Model: "gemini-2.5-flash"}, "", "", testLog)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := g.Transcribe(context.Background(), writeAudio(t, "notes.txt")); err == nil {
		t.Error("Transcribe() should reject unsupported audio types")
	}
	if _, err := g.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("Transcribe() should fail for a missing file")
	}
}

func TestGeminiKeyRotation(t *testing.T) {
	tr, _ := NewGemini(config.GeminiConfig{APIKeys: []string{"a", "b", "c"}}, "", "", testLog)
	g := tr.(*gemini)

	seen := []string{}
	for range 4 {
		_, k := g.key()
		seen = append(seen, k)
		g.rotateKey()
	}
	if strings.Join(seen, "") != "abca" {
		t.Errorf("rotation = %v, want a b c a", seen)
	}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("Error 429, Message: too many requests"), true},
		{errors.New("RESOURCE_EXHAUSTED"), true},
		{errors.New("exceeded your current quota"), true},
		{errors.New("Error 400, invalid argument"), false},
	}
	for _, tt := range tests {
		if got := isRateLimited(tt.err); got != tt.want {
			t.Errorf("isRateLimited(%q) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestGeminiInstructions(t *testing.T) {
	tr, _ := NewGemini(config.GeminiConfig{APIKeys: []string{"a"}}, "vi", "Kubernetes", testLog)
	p := tr.(*gemini).instructions()
	if !strings.Contains(p, `"vi"`) || !strings.Contains(p, "Kubernetes") {
		t.Errorf("instructions = %q", p)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EngineConfig
		want    string
		wantErr bool
	}{
		{"whisper-cli", config.EngineConfig{Name: config.EngineWhisperCLI}, config.EngineWhisperCLI, false},
		{"whisper-server", config.EngineConfig{Name: config.EngineWhisperServer}, config.EngineWhisperServer, false},
		{"openai", config.EngineConfig{Name: config.EngineOpenAI}, config.EngineOpenAI, false},
		{"gemini", config.EngineConfig{Name: config.EngineGemini, Gemini: config.GeminiConfig{APIKeys: []string{"k"}}}, config.EngineGemini, false},
		{"unknown", config.EngineConfig{Name: "vosk"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.cfg, &fakeExecutor{}, testLog)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tr.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", tr.Name(), tt.want)
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	got := flatten([]Segment{{Text: " one"}, {Text: ""}, {Text: " two "}})
	if got != "one two" {
		t.Errorf("flatten() = %q", got)
	}
}
