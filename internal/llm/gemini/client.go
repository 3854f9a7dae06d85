package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GreenhouseOperations/packingslip-parser/internal/llm"
	"github.com/GreenhouseOperations/packingslip-parser/internal/slip"
)

// generateContent request/response shapes, trimmed to what we use.
type genRequest struct {
	Contents         []genContent `json:"contents"`
	GenerationConfig genConfig    `json:"generationConfig"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
}

type genPart struct {
	Text string `json:"text"`
}

type genConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type genResponse struct {
	Candidates []struct {
		Content struct {
			Parts []genPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ExtractRecords implements llm.RecordExtractor against the Gemini
// generateContent REST endpoint. The response text is fence-stripped,
// normalized, shape-checked against the slip schema and decoded into candidate
// records; any of those steps failing is a MalformedResponseError so the
// orchestrator can retry with the reason in the prompt.
func (c *Client) ExtractRecords(ctx context.Context, req llm.ExtractRequest) ([]slip.CandidateRecord, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	prompt := llm.BuildBatchPrompt(req)
	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"pages", len(req.Pages),
		"prompt_len", len(prompt),
		"retry_hint", req.Hint != "",
	)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body := genRequest{
		Contents: []genContent{{Parts: []genPart{{Text: prompt}}}},
		GenerationConfig: genConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + c.cfg.Model + ":generateContent"
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, nil, url.Values{"key": {c.cfg.APIKey}}, c.log)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.log.Error("llm.extract.timeout", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
			return nil, nil, fmt.Errorf("gemini call: %w", llm.ErrTimeout)
		}
		c.log.Error("llm.extract.http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, err
	}

	var gr genResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.log.Error("llm.extract.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return nil, raw, &llm.MalformedResponseError{Reason: fmt.Sprintf("decode gemini envelope: %v", err), Raw: raw}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		c.log.Error("llm.extract.empty_response", "req_id", rid, "raw_bytes", len(raw))
		return nil, raw, &llm.MalformedResponseError{Reason: "no candidates in gemini response", Raw: raw}
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	content := []byte(llm.StripCodeFences(sb.String()))

	normalized, adjusted, err := llm.NormalizeCandidateJSON(content)
	if err != nil {
		c.log.Error("llm.extract.sanitize_failed", "req_id", rid, "error", err, "content_bytes", len(content))
		return nil, content, &llm.MalformedResponseError{Reason: err.Error(), Raw: content}
	}
	if len(adjusted) > 0 {
		c.log.Warn("llm.extract.sanitize_applied", "req_id", rid, "adjusted", adjusted)
	}

	if err := llm.ValidateJSONAgainstSchema(llm.BuildSlipJSONSchema(), normalized); err != nil {
		c.log.Error("llm.extract.schema_validation_failed", "req_id", rid, "error", err)
		return nil, normalized, &llm.MalformedResponseError{Reason: err.Error(), Raw: normalized}
	}

	var records []slip.CandidateRecord
	if err := json.Unmarshal(normalized, &records); err != nil {
		c.log.Error("llm.extract.unmarshal_failed", "req_id", rid, "error", err)
		return nil, normalized, &llm.MalformedResponseError{Reason: fmt.Sprintf("unmarshal records: %v", err), Raw: normalized}
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"records", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return records, normalized, nil
}

// Ping issues a minimal generateContent call so health checks can tell a bad
// key or unreachable endpoint apart from a healthy one.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body := genRequest{
		Contents:         []genContent{{Parts: []genPart{{Text: "Hello"}}}},
		GenerationConfig: genConfig{Temperature: 0, MaxOutputTokens: 8},
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + c.cfg.Model + ":generateContent"
	_, _, err := llm.SendJSON(ctx, c.http, endpoint, body, nil, url.Values{"key": {c.cfg.APIKey}}, c.log)
	return err
}
