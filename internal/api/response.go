package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nguyentantai21042004/transcribe-flow/internal/processor"
	"github.com/nguyentantai21042004/transcribe-flow/internal/queue"
)

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	jsonResponse(w, map[string]string{"error": msg}, status)
}

// statusFor maps a processing error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, processor.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, processor.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
