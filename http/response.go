package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/zipstream"
)

// ErrorResponse is the JSON body of every error answer except archive 404s.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// retryAfterSeconds is sent with 503 answers when the job limit is reached.
const retryAfterSeconds = "5"

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
	level   slog.Level
}

// errorMappings is checked in order; the first match wins. Invalid archive
// ids answer like missing ones so the listing cannot be probed.
var errorMappings = []errorMapping{
	{zipstream.ErrNotFound, http.StatusNotFound, "not_found", "Archive not found", slog.LevelDebug},
	{zipstream.ErrInvalidInput, http.StatusNotFound, "not_found", "Archive not found", slog.LevelDebug},
	{zipstream.ErrTooManyJobs, http.StatusServiceUnavailable, "too_many_jobs", "Too many archives in progress, retry later", slog.LevelWarn},
	{zipstream.ErrSpawn, http.StatusInternalServerError, "spawn_failed", "Archive process could not be started", slog.LevelError},
}

func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the error answer for err. It must only be used before
// any part of the response has been written.
func HandleError(w http.ResponseWriter, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		slog.Log(context.Background(), m.level, "request error", "error", err)
		if m.status == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", retryAfterSeconds)
		}
		WriteError(w, m.status, m.code, m.message)
		return
	}

	slog.Error("request error", "error", err)
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
