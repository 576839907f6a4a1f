package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docsum/internal/domain"
	"docsum/internal/extract"
	"docsum/internal/ollama"
	"docsum/internal/pipeline"
)

// ErrNoModels means the backend is reachable but advertises no models;
// summarization must not be requested.
var ErrNoModels = errors.New("no models available")

// Runner executes one summarization run for an uploaded document.
type Runner interface {
	Run(ctx context.Context, doc io.ReaderAt, size int64, model string) (*domain.Result, error)
}

// Prober checks reachability of the inference backend.
type Prober interface {
	IsReachable(ctx context.Context) bool
}

// Config carries the presentation-layer knobs.
type Config struct {
	DefaultModel   string
	MaxUploadBytes int64
}

// Server is the HTTP surface over the summarization pipeline: document
// upload, model listing, health, and session-scoped result retrieval.
type Server struct {
	runner  Runner
	probe   Prober
	catalog *Catalog
	results *resultStore
	cfg     Config
	log     *slog.Logger
}

func New(
	runner Runner,
	probe Prober,
	catalog *Catalog,
	cfg Config,
	log *slog.Logger,
) *Server {
	return &Server{
		runner:  runner,
		probe:   probe,
		catalog: catalog,
		results: newResultStore(resultStoreMaxEntries, resultStoreTTL),
		cfg:     cfg,
		log:     log,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/summarize", s.handleSummarize)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("GET /api/results/{id}", s.handleResult)
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

type summarizeResponse struct {
	ID            string   `json:"id,omitempty"`
	Model         string   `json:"model"`
	Summary       string   `json:"summary"`
	Truncated     bool     `json:"truncated"`
	TruncatedTo   int      `json:"truncated_to_chars,omitempty"`
	OriginalChars int      `json:"original_chars"`
	OriginalWords int      `json:"original_words"`
	SummaryWords  int      `json:"summary_words"`
	Compression   *float64 `json:"compression_pct,omitempty"`
}

type modelsResponse struct {
	Models []string `json:"models"`
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, errorResponse{
			Error: "invalid multipart form: " + err.Error(),
		})

		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, errorResponse{
			Error: "document file is required",
		})

		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, errorResponse{
			Error: "read uploaded document: " + err.Error(),
		})

		return
	}

	model := strings.TrimSpace(r.FormValue("model"))
	if model == "" {
		model = s.cfg.DefaultModel
	}
	if model == "" {
		s.writeError(ctx, w, http.StatusBadRequest, errorResponse{
			Error: "model is required and no default model is configured",
		})

		return
	}

	if !s.catalog.Contains(model) {
		s.log.WarnContext(ctx, "Requested model is not in the cached catalog",
			"model", model,
			"fileName", header.Filename)
	}

	result, err := s.runner.Run(ctx, bytes.NewReader(data), int64(len(data)), model)
	if err != nil {
		s.writeRunError(ctx, w, err)

		return
	}

	id := s.results.put(result, time.Now())

	s.log.InfoContext(ctx, "Document summarized",
		"model", model,
		"fileName", header.Filename,
		"documentBytes", len(data),
		"truncated", result.Truncated,
		"originalWords", result.Stats.OriginalWords,
		"summaryWords", result.Stats.SummaryWords)

	s.writeJSON(ctx, w, http.StatusOK, resultToResponse(id, result))
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	models := s.catalog.Models(ctx)
	if len(models) == 0 {
		s.writeError(ctx, w, http.StatusServiceUnavailable, errorResponse{
			Error: ErrNoModels.Error(),
			Kind:  "no_models_available",
		})

		return
	}

	s.writeJSON(ctx, w, http.StatusOK, modelsResponse{Models: models})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.PathValue("id")

	result, ok := s.results.get(id, time.Now())
	if !ok {
		s.writeError(ctx, w, http.StatusNotFound, errorResponse{
			Error: "result not found",
		})

		return
	}

	s.writeJSON(ctx, w, http.StatusOK, resultToResponse(id, result))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.probe.IsReachable(r.Context()) {
		http.Error(w, "backend unavailable", http.StatusServiceUnavailable)

		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func resultToResponse(id string, result *domain.Result) summarizeResponse {
	return summarizeResponse{
		ID:            id,
		Model:         result.Model,
		Summary:       result.Summary,
		Truncated:     result.Truncated,
		TruncatedTo:   result.TruncatedTo,
		OriginalChars: result.OriginalChars,
		OriginalWords: result.Stats.OriginalWords,
		SummaryWords:  result.Stats.SummaryWords,
		Compression:   result.Stats.Compression,
	}
}

func (s *Server) writeRunError(ctx context.Context, w http.ResponseWriter, err error) {
	kind, status := classifyRunError(err)

	resp := errorResponse{
		Error: err.Error(),
		Kind:  kind,
	}

	var stageErr *pipeline.Error
	if errors.As(err, &stageErr) {
		resp.Stage = string(stageErr.Stage)
	}

	s.log.WarnContext(ctx, "Summarization run failed",
		"error", err,
		"kind", kind,
		"stage", resp.Stage)

	s.writeJSON(ctx, w, status, resp)
}

func classifyRunError(err error) (string, int) {
	var (
		extractionErr *extract.ExtractionError
		backendErr    *ollama.BackendError
		timeoutErr    *ollama.TimeoutError
		networkErr    *ollama.NetworkError
	)

	switch {
	case errors.Is(err, pipeline.ErrBackendUnavailable):
		return "backend_unavailable", http.StatusServiceUnavailable
	case errors.As(err, &extractionErr):
		return "extraction_error", http.StatusUnprocessableEntity
	case errors.As(err, &timeoutErr):
		return "timeout", http.StatusGatewayTimeout
	case errors.As(err, &backendErr):
		return "backend_error", http.StatusBadGateway
	case errors.As(err, &networkErr):
		return "network_error", http.StatusBadGateway
	default:
		return "internal_error", http.StatusInternalServerError
	}
}

func (s *Server) writeError(
	ctx context.Context,
	w http.ResponseWriter,
	status int,
	resp errorResponse,
) {
	s.writeJSON(ctx, w, status, resp)
}

func (s *Server) writeJSON(
	ctx context.Context,
	w http.ResponseWriter,
	status int,
	payload any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.ErrorContext(ctx, "Failed to encode response",
			"error", err)
	}
}
