// Package server is the only component touching the network boundary: it
// accepts uploads, drives the pipeline end to end and maps internal failures
// to HTTP outcomes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GreenhouseOperations/packingslip-parser/internal/common"
	"github.com/GreenhouseOperations/packingslip-parser/internal/export"
	"github.com/GreenhouseOperations/packingslip-parser/internal/pdftext"
	"github.com/GreenhouseOperations/packingslip-parser/internal/slip"
)

// TextExtractor is the PDF text acquisition boundary.
type TextExtractor interface {
	Extract(data []byte) (pdftext.ExtractedText, error)
}

// Pipeline is the extraction orchestration boundary.
type Pipeline interface {
	ExtractRecords(ctx context.Context, text pdftext.ExtractedText) ([]slip.DerivedRecord, error)
	ExtractFromText(ctx context.Context, text string) ([]slip.CandidateRecord, error)
	Ping(ctx context.Context) error
}

type Handler struct {
	logger    *slog.Logger
	cfg       common.ServerConfig
	pdf       TextExtractor
	pipeline  Pipeline
	assembler *export.Assembler
}

func NewHandler(logger *slog.Logger, cfg common.ServerConfig, pdf TextExtractor, pipe Pipeline, assembler *export.Assembler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if assembler == nil {
		assembler = export.NewAssembler(logger)
	}
	return &Handler{logger: logger, cfg: cfg, pdf: pdf, pipeline: pipe, assembler: assembler}
}

// Routes wires the HTTP surface.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("POST /upload", h.handleUpload)
	mux.HandleFunc("POST /test-ai", h.handleTestAI)
	return h.requestLog(mux)
}

// handleUpload walks the request through the pipeline stages in order:
// received, extracting, validating, assembling, responding. Any stage may fail
// the request; none runs twice (retries live inside the orchestrator).
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := common.RequestIDFromContext(ctx)
	log := h.logger.With("req_id", reqID)

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, log, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.writeError(w, log, http.StatusBadRequest, "No file selected")
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		h.writeError(w, log, http.StatusBadRequest, "File must be a PDF")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, log, http.StatusBadRequest, fmt.Sprintf("Could not read upload: %v", err))
		return
	}
	log.Info("upload.received", "filename", header.Filename, "bytes", len(data))

	log.Info("upload.stage", "stage", "extracting")
	text, err := h.pdf.Extract(data)
	if err != nil {
		h.failUpload(w, log, err)
		return
	}
	if ctx.Err() != nil {
		log.Warn("upload.abandoned", "stage", "extracting")
		return
	}

	log.Info("upload.stage", "stage", "validating", "pages", len(text.Pages))
	records, err := h.pipeline.ExtractRecords(ctx, text)
	if err != nil {
		h.failUpload(w, log, err)
		return
	}
	if ctx.Err() != nil {
		log.Warn("upload.abandoned", "stage", "validating")
		return
	}

	log.Info("upload.stage", "stage", "assembling", "records", len(records))
	var doc export.Document
	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		doc, err = h.assembler.AssembleCSV(records)
	case "xlsx":
		doc, err = h.assembler.AssembleXLSX(records)
	default:
		h.writeError(w, log, http.StatusBadRequest, fmt.Sprintf("Unknown format %q", format))
		return
	}
	if err != nil {
		h.failUpload(w, log, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	if _, err := w.Write(doc.Data); err != nil {
		log.Warn("upload.write_failed", "error", err)
		return
	}
	log.Info("upload.responded", "filename", doc.Filename, "rows", len(records), "bytes", len(doc.Data))
}

// failUpload maps an internal error onto the taxonomy's status code. The
// response is always the JSON error shape; no partial CSV ever leaves here.
func (h *Handler) failUpload(w http.ResponseWriter, log *slog.Logger, err error) {
	status := common.HTTPStatus(err)
	msg := err.Error()
	switch {
	case errors.Is(err, common.ErrDocumentFormat):
		msg = "Invalid file: " + msg
	case errors.Is(err, common.ErrNoValidRecords):
		msg = "Could not extract any valid records from the document"
	case errors.Is(err, common.ErrExtraction):
		msg = "Extraction service failed; try again later"
	}
	h.writeError(w, log, status, msg)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.pipeline.Ping(ctx); err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":        "unhealthy",
			"ai_connection": "failed",
			"error":         err.Error(),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"ai_connection": "connected",
	})
}

// handleTestAI runs the collaborator call in isolation on caller-supplied
// text. Operability diagnostic, not part of the data contract.
func (h *Handler) handleTestAI(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With("req_id", common.RequestIDFromContext(r.Context()))

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, log, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		h.writeError(w, log, http.StatusBadRequest, "No text provided")
		return
	}

	candidates, err := h.pipeline.ExtractFromText(r.Context(), body.Text)
	if err != nil {
		h.writeError(w, log, http.StatusBadGateway, fmt.Sprintf("Test error: %v", err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"result": candidates})
}

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Packing Slip Parser API",
		"status":    "running",
		"endpoints": []string{"/health", "/upload", "/test-ai"},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, log *slog.Logger, status int, msg string) {
	log.Error("http.error", "status", status, "message", msg)
	h.writeJSON(w, status, map[string]any{"error": msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("http.encode_failed", "error", err)
	}
}
