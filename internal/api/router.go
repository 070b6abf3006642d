package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nguyentantai21042004/transcribe-flow/internal/config"
	"github.com/nguyentantai21042004/transcribe-flow/internal/logger"
	"github.com/nguyentantai21042004/transcribe-flow/internal/queue"
)

// NewRouter wires the upload, download and health endpoints.
func NewRouter(cfg *config.Config, q queue.Queue, engineName string, log logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(Logger(log))
	r.Use(cors.Handler(CORSHandler(cfg.Server.CORSOrigins)))

	h := NewHandler(cfg.Paths.Upload, q, engineName, log)

	r.With(MaxBodySize(cfg.Server.MaxUploadBytes)).Post("/upload", h.Upload)
	r.Get("/download/{filename}", h.Download)
	r.Get("/health", h.Health)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}
