package docai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerflow/ledgerflow/constants"
	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/entity"
)

// Config holds settings for the optional out-of-process classification
// service.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the external document-classification service. The
// orchestrator treats it as best-effort: any error here falls back to the
// local classifier and is never surfaced as a pipeline failure.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// ClassifyRequest is the document summary sent to the remote service.
type ClassifyRequest struct {
	Filename   string          `json:"filename"`
	Headers    []string        `json:"headers"`
	SampleRows []entity.Record `json:"sample_rows,omitempty"`
}

// Healthy probes the service's liveness endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/health"), nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("docai.health.unreachable", "error", err)
		return false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	return resp.StatusCode == http.StatusOK
}

// Classify submits the document summary and returns the validated
// classification. The response is checked against the JSON schema before
// use; a response that fails validation is an error, which callers convert
// into a local-classifier fallback.
func (c *Client) Classify(ctx context.Context, creq ClassifyRequest) (entity.ClassificationResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	body, err := json.Marshal(creq)
	if err != nil {
		return entity.ClassificationResult{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/v1/documents/classify"), bytes.NewReader(body))
	if err != nil {
		return entity.ClassificationResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("docai.classify.request", "req_id", rid, "filename", creq.Filename, "headers", len(creq.Headers))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("docai.classify.send_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.ClassificationResult{}, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("docai.classify.body_close_error", "req_id", rid, "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	c.logger.Info("docai.classify.response",
		"req_id", rid,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode/100 != 2 {
		return entity.ClassificationResult{}, common.NewAppError("DOCAI_STATUS",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), common.ErrInternal)
	}

	if err := ValidateJSONAgainstSchema(BuildClassificationJSONSchema(), raw); err != nil {
		return entity.ClassificationResult{}, fmt.Errorf("schema validation failed: %w", err)
	}

	var out entity.ClassificationResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return entity.ClassificationResult{}, fmt.Errorf("decode classification: %w", err)
	}
	if !out.DocumentType.Valid() {
		out.DocumentType = constants.Other
	}
	// The remote service does not own our flagging rule.
	if out.Confidence < 0.6 {
		out.PotentialMisclassification = true
	}
	return out, nil
}

func (c *Client) url(p string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + p
}
