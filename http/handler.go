package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sagarc03/zipstream"
)

type Service interface {
	Open(ctx context.Context, archiveID string) (zipstream.ArchiveJob, error)
	List(ctx context.Context) (zipstream.ListResult, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// IndexPath is served at GET /. Empty serves the built-in landing page.
	IndexPath string
	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler
	// History is served at GET /jobs when set.
	History zipstream.JobHistory
	CORS    CORSConfig
}

// Handler provides the HTTP endpoints for archive downloads.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with all routes configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   append([]string{"Content-Disposition", "X-Archive-Job"}, h.config.CORS.ExposedHeaders...),
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/", h.handleIndex)
	r.Get("/archives", h.handleList)
	r.Get("/archive/{archiveID}", h.handleArchive)
	r.Get("/archive/{archiveID}/", h.handleArchive)

	if h.config.History != nil {
		r.Get("/jobs", h.handleJobs)
	}

	if h.config.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.config.Metrics)
	}

	return r
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if h.config.IndexPath == "" {
		writeDefaultIndex(w)
		return
	}

	content, err := os.ReadFile(h.config.IndexPath)
	if err != nil {
		HandleError(w, fmt.Errorf("read index page: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := zipstream.HistoryQuery{
		ArchiveID: params.Get("archive_id"),
		Cursor:    params.Get("cursor"),
	}

	if limitStr := params.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			WriteError(w, http.StatusBadRequest, "invalid_query", "limit must be a positive integer")
			return
		}
		query.Limit = limit
	}

	if query.ArchiveID != "" && !zipstream.IsValidArchiveID(query.ArchiveID) {
		WriteError(w, http.StatusBadRequest, "invalid_query", "Invalid archive_id")
		return
	}

	page, err := h.config.History.List(r.Context(), query)
	if err != nil {
		if errors.Is(err, zipstream.ErrInvalidInput) {
			WriteError(w, http.StatusBadRequest, "invalid_query", "Invalid cursor")
			return
		}
		HandleError(w, err)
		return
	}

	if page.Items == nil {
		page.Items = []zipstream.JobRecord{}
	}

	_ = WriteJSON(w, http.StatusOK, page)
}

// handleArchive streams the archive for {archiveID}. Everything that can fail
// before the archive process runs is answered with a status code; once the
// headers are sent the only remaining signal is how the body ends.
func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	archiveID := chi.URLParam(r, "archiveID")

	job, err := h.service.Open(r.Context(), archiveID)
	if err != nil {
		if errors.Is(err, zipstream.ErrNotFound) {
			slog.Debug("archive not found", "archive_id", archiveID, "err", err)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		HandleError(w, err)
		return
	}
	defer func() { _ = job.Close() }()

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Debug("failed to clear write deadline", "job_id", job.ID(), "err", err)
	}

	header := w.Header()
	header.Set("Content-Type", "application/zip")
	header.Set("Content-Disposition", `attachment; filename="`+job.Filename()+`"`)
	header.Set("Cache-Control", "no-store")
	header.Set("X-Content-Type-Options", "nosniff")
	header.Set("X-Archive-Job", job.ID())
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Debug("failed to flush headers", "job_id", job.ID(), "err", err)
	}

	_, streamErr := job.Stream(r.Context(), &flushWriter{w: w, rc: rc})
	closeErr := job.Close()

	if streamErr == nil && closeErr == nil {
		return
	}
	if errors.Is(streamErr, zipstream.ErrPeerDisconnected) || errors.Is(streamErr, zipstream.ErrCanceled) {
		return
	}

	// The status line is gone; abort so the client sees a broken transfer
	// instead of a complete-looking truncated archive.
	panic(http.ErrAbortHandler)
}

// flushWriter pushes every chunk to the client as soon as it is written.
type flushWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func (f *flushWriter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f *flushWriter) Flush() error {
	err := f.rc.Flush()
	if errors.Is(err, http.ErrNotSupported) {
		return nil
	}
	return err
}
