// Package pipeline drives a document from extracted text to derived records.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GreenhouseOperations/packingslip-parser/internal/common"
	"github.com/GreenhouseOperations/packingslip-parser/internal/llm"
	"github.com/GreenhouseOperations/packingslip-parser/internal/pdftext"
	"github.com/GreenhouseOperations/packingslip-parser/internal/slip"
)

// Config holds the orchestrator's retry and batching bounds. The retry loops
// are attempt counters, never recursion, so termination is guaranteed.
type Config struct {
	BatchSize        int // pages per collaborator call, default 10
	MaxParseRetries  int // extra attempts after a malformed response, default 2
	RecordAttempts   int // total attempts per record incl. the first, default 2
	MaxBatchParallel int // concurrently in-flight batches, default 2
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.MaxParseRetries < 0 {
		c.MaxParseRetries = 2
	}
	if c.RecordAttempts <= 0 {
		c.RecordAttempts = 2
	}
	if c.MaxBatchParallel <= 0 {
		c.MaxBatchParallel = 2
	}
	return c
}

// Orchestrator builds collaborator requests, routes candidates through the
// validator and hands survivors to the deriver. It owns every reaction to
// collaborator unpredictability; nothing else in the repo retries.
type Orchestrator struct {
	logger    *slog.Logger
	cfg       Config
	extractor llm.RecordExtractor
	validator *slip.Validator
	deriver   *slip.Deriver
}

func NewOrchestrator(logger *slog.Logger, cfg Config, ex llm.RecordExtractor, v *slip.Validator, d *slip.Deriver) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if v == nil {
		v = slip.NewValidator()
	}
	if d == nil {
		d = slip.NewDeriver(0, 0)
	}
	return &Orchestrator{logger: logger, cfg: cfg.withDefaults(), extractor: ex, validator: v, deriver: d}
}

// ExtractRecords turns extracted page text into derived records. Records that
// keep failing validation after the bounded refinement attempt are dropped and
// logged; the call only fails outright when the collaborator misbehaves past
// its retry budget or when zero records survive.
func (o *Orchestrator) ExtractRecords(ctx context.Context, text pdftext.ExtractedText) ([]slip.DerivedRecord, error) {
	start := time.Now()

	pages := text.NonEmpty()
	if len(pages) == 0 {
		return nil, fmt.Errorf("no readable text in document: %w", common.ErrDocumentFormat)
	}

	batches := o.batchPages(pages)
	results := make([][]slip.ValidatedRecord, len(batches))
	candidateTotals := make([]int, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxBatchParallel)
	for i, batch := range batches {
		g.Go(func() error {
			validated, candidates, err := o.processBatch(gctx, i, batch)
			if err != nil {
				return err
			}
			results[i] = validated
			candidateTotals[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []slip.DerivedRecord
	var candidates int
	for i, validated := range results {
		candidates += candidateTotals[i]
		for _, r := range validated {
			out = append(out, o.deriver.Derive(r))
		}
	}

	if len(out) == 0 {
		o.logger.Error("pipeline.extract.no_valid_records",
			"pages", len(pages), "candidates", candidates,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("document yielded %d candidates, none valid: %w", candidates, common.ErrNoValidRecords)
	}

	o.logger.Info("pipeline.extract.ok",
		"pages", len(pages),
		"batches", len(batches),
		"candidates", candidates,
		"records", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (o *Orchestrator) batchPages(pages []pdftext.Page) [][]llm.PageText {
	var batches [][]llm.PageText
	for i := 0; i < len(pages); i += o.cfg.BatchSize {
		end := min(i+o.cfg.BatchSize, len(pages))
		batch := make([]llm.PageText, 0, end-i)
		for _, p := range pages[i:end] {
			batch = append(batch, llm.PageText{Number: p.Number, Text: p.Text})
		}
		batches = append(batches, batch)
	}
	return batches
}

// processBatch runs one collaborator call with the bounded malformed-response
// retry loop, then validates every candidate it produced. Output order follows
// the collaborator's.
func (o *Orchestrator) processBatch(ctx context.Context, idx int, batch []llm.PageText) ([]slip.ValidatedRecord, int, error) {
	candidates, err := o.callWithRetry(ctx, llm.ExtractRequest{Pages: batch})
	if err != nil {
		return nil, 0, err
	}

	validated := make([]slip.ValidatedRecord, 0, len(candidates))
	dropped := 0
	for i, c := range candidates {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		rec, err := o.validateWithRefinement(ctx, batch, i, c)
		if err != nil {
			dropped++
			o.logger.Warn("pipeline.record.dropped",
				"batch", idx, "record", i, "reason", err.Error())
			continue
		}
		validated = append(validated, rec)
	}

	o.logger.Info("pipeline.batch.ok",
		"batch", idx, "pages", len(batch),
		"candidates", len(candidates), "validated", len(validated), "dropped", dropped)
	return validated, len(candidates), nil
}

// callWithRetry is the bounded parse-failure loop: malformed responses and
// timeouts get another attempt with the failure reason folded into the prompt.
func (o *Orchestrator) callWithRetry(ctx context.Context, req llm.ExtractRequest) ([]slip.CandidateRecord, error) {
	var lastErr error
	for attempt := 0; attempt <= o.cfg.MaxParseRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidates, _, err := o.extractor.ExtractRecords(ctx, req)
		if err == nil {
			return candidates, nil
		}
		lastErr = err

		var malformed *llm.MalformedResponseError
		switch {
		case errors.As(err, &malformed):
			req.Hint = "the response could not be parsed as the expected JSON array: " + malformed.Reason
		case errors.Is(err, llm.ErrTimeout):
			req.Hint = "the previous attempt timed out; respond with compact JSON only"
		case errors.Is(err, context.Canceled):
			return nil, err
		default:
			req.Hint = "the previous attempt failed: " + err.Error()
		}
		o.logger.Warn("pipeline.batch.retry",
			"attempt", attempt+1, "max_retries", o.cfg.MaxParseRetries, "error", err)
	}
	return nil, fmt.Errorf("collaborator failed after %d attempts: %v: %w",
		o.cfg.MaxParseRetries+1, lastErr, common.ErrExtraction)
}

// validateWithRefinement validates one candidate, asking the collaborator to
// re-extract the batch once with the failing field named when the first pass
// fails. Still failing means the record is dropped by the caller.
func (o *Orchestrator) validateWithRefinement(ctx context.Context, batch []llm.PageText, idx int, c slip.CandidateRecord) (slip.ValidatedRecord, error) {
	rec, err := o.validator.Validate(c)
	if err == nil {
		return rec, nil
	}

	var fieldErr *slip.FieldValidationError
	if !errors.As(err, &fieldErr) || o.cfg.RecordAttempts < 2 {
		return slip.ValidatedRecord{}, err
	}

	for attempt := 2; attempt <= o.cfg.RecordAttempts; attempt++ {
		hint := fmt.Sprintf("record %d failed validation on %s: %s; re-extract with that field corrected",
			idx+1, fieldErr.Field, fieldErr.Reason)
		o.logger.Info("pipeline.record.refine", "record", idx, "attempt", attempt, "field", fieldErr.Field)

		candidates, _, cerr := o.extractor.ExtractRecords(ctx, llm.ExtractRequest{Pages: batch, Hint: hint})
		if cerr != nil || idx >= len(candidates) {
			return slip.ValidatedRecord{}, err
		}
		rec, verr := o.validator.Validate(candidates[idx])
		if verr == nil {
			return rec, nil
		}
		err = verr
		if !errors.As(verr, &fieldErr) {
			break
		}
	}
	return slip.ValidatedRecord{}, err
}

// Ping exposes collaborator reachability for health checks.
func (o *Orchestrator) Ping(ctx context.Context) error {
	return o.extractor.Ping(ctx)
}

// ExtractFromText runs a single collaborator call over loose text, bypassing
// validation. Diagnostic use only.
func (o *Orchestrator) ExtractFromText(ctx context.Context, text string) ([]slip.CandidateRecord, error) {
	candidates, _, err := o.extractor.ExtractRecords(ctx, llm.ExtractRequest{
		Pages: []llm.PageText{{Number: 1, Text: text}},
	})
	return candidates, err
}
