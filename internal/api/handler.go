package api

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/nguyentantai21042004/transcribe-flow/internal/fsx"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
	"github.com/nguyentantai21042004/transcribe-flow/internal/media"
	"github.com/nguyentantai21042004/transcribe-flow/internal/queue"
)

// Parts above this size are spooled to disk by the multipart reader.
const maxMemory = 32 << 20

type Handler struct {
	uploadDir string
	queue     queue.Queue
	engine    string
	logger    logger.Logger
}

func NewHandler(uploadDir string, q queue.Queue, engine string, log logger.Logger) *Handler {
	return &Handler{uploadDir: uploadDir, queue: q, engine: engine, logger: log}
}

// Upload saves the "file" part under the upload directory, transcribes it and
// returns the transcript text with its path.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A part named "file" without a filename arrives as a plain value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			jsonError(w, "No file selected", http.StatusBadRequest)
			return
		}
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !media.IsSupported(header.Filename) {
		jsonError(w, "Unsupported file format", http.StatusBadRequest)
		return
	}
	name := uploadName(header.Filename)

	dst := filepath.Join(h.uploadDir, name)
	if err := fsx.CopyAtomic(dst, file); err != nil {
		h.logger.Error(ctx, "Failed to save upload %s: %v", dst, err)
		jsonError(w, "Failed to save file", http.StatusInternalServerError)
		return
	}
	h.logger.Info(ctx, "Saved upload: %s (%d bytes)", dst, header.Size)

	res, err := h.queue.Submit(ctx, dst)
	if err != nil {
		h.logger.Error(ctx, "Failed to process %s: %v", dst, err)
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	jsonResponse(w, map[string]string{
		"message":       "Transcription completed!",
		"transcription": res.Text,
		"file":          res.TranscriptPath,
	}, http.StatusOK)
}

// Download streams a file from the upload directory as an attachment.
// Only base names are accepted.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		jsonError(w, "File not found", http.StatusNotFound)
		return
	}

	path := filepath.Join(h.uploadDir, name)
	f, err := os.Open(path)
	if err != nil {
		jsonError(w, "File not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		jsonError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, fi.ModTime(), f)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]interface{}{
		"status": "ok",
		"engine": h.engine,
		"queued": h.queue.Pending(),
	}, http.StatusOK)
}

var reUnsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// uploadName is the saved name of a supported upload. The extension is kept from
// the client name; a stem with nothing safe left ("会議.mp3") is replaced by a UUID.
func uploadName(original string) string {
	ext := filepath.Ext(original)
	stem := sanitizeFilename(strings.TrimSuffix(original, ext))
	if stem == "" {
		return uuid.New().String() + strings.ToLower(ext)
	}
	return stem + ext
}

// sanitizeFilename reduces a client supplied name to a safe ASCII base name:
// "../../My Talk (final).MP4" -> "My_Talk_final.MP4", "réunion.mp4" -> "reunion.mp4".
func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return ' '
		case r > unicode.MaxASCII:
			return -1
		}
		return r
	}, norm.NFKD.String(name))
	name = strings.Join(strings.Fields(name), "_")
	name = reUnsafeFilename.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}
