// Package oracle wraps the external image scoring service. The client makes
// exactly one network call per invocation and never retries; retry policy
// belongs to the settlement orchestrator.
package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/pkg/logger"
)

// Config describes the scoring service and the model configuration.
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	Prompt   string
	Scale    Scale
	Timeout  time.Duration
}

// Client calls the scoring service over HTTP.
type Client struct {
	client   *http.Client
	endpoint *url.URL
	apiKey   string
	model    string
	prompt   string
	scale    Scale
	oracleID verification.OracleID
	log      *logger.Logger
}

// NewClient constructs a scoring client. A nil httpClient gets a bounded
// default; the timeout always bounds the call either way.
func NewClient(httpClient *http.Client, cfg Config, log *logger.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("oracle endpoint required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse oracle endpoint: %w", err)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("oracle model required")
	}
	if _, err := ParseScale(string(cfg.Scale)); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = logger.NewDefault("oracle-client")
	}

	return &Client{
		client:   httpClient,
		endpoint: parsed,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		model:    cfg.Model,
		prompt:   cfg.Prompt,
		scale:    cfg.Scale,
		oracleID: verification.OracleIDFor(cfg.Model),
		log:      log,
	}, nil
}

// ID returns the stable identifier of the configured model.
func (c *Client) ID() verification.OracleID { return c.oracleID }

// Scale returns the declared native range of the model's output.
func (c *Client) Scale() Scale { return c.scale }

// Score submits image bytes for scoring and returns the raw numeric value in
// the oracle's native range. Non-numeric or unparseable responses yield an
// oracle fault; the caller decides what to do with out-of-range values.
func (c *Client) Score(ctx context.Context, image []byte) (float64, error) {
	body, err := c.post(ctx, scoreRequest{
		Model:       c.model,
		Prompt:      c.prompt,
		ImageBase64: base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return 0, err
	}

	var payload struct {
		Score json.Number `json:"score"`
		Error string      `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, verification.NewOracleFault("decode scoring response", string(body), err)
	}
	if payload.Error != "" {
		return 0, verification.NewOracleFault("scoring service error", payload.Error, nil)
	}

	raw, err := strconv.ParseFloat(payload.Score.String(), 64)
	if err != nil {
		return 0, verification.NewOracleFault("non-numeric score", payload.Score.String(), err)
	}
	return raw, nil
}

// Explain asks the model for free-text reasoning about an already computed
// verdict. Enrichment only: failures here must not affect the verdict.
func (c *Client) Explain(ctx context.Context, image []byte, score verification.Score, verdict bool) (string, error) {
	body, err := c.post(ctx, scoreRequest{
		Model:       c.model,
		Prompt:      fmt.Sprintf("%s Explain the judgement (score %d bps, authentic=%t).", c.prompt, score, verdict),
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		Detailed:    true,
	})
	if err != nil {
		return "", err
	}

	var payload struct {
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode explanation response: %w", err)
	}
	return payload.Explanation, nil
}

type scoreRequest struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"image_base64"`
	Detailed    bool   `json:"detailed,omitempty"`
}

func (c *Client) post(ctx context.Context, req scoreRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal scoring request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build scoring request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, verification.NewOracleFault("scoring service unreachable", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, verification.NewOracleFault(fmt.Sprintf("scoring service status %d", resp.StatusCode), "", nil)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, verification.NewOracleFault("read scoring response", "", err)
	}
	return buf.Bytes(), nil
}
