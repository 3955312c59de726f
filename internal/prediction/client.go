package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Brownie44l1/breed-api/internal/metric"
	"github.com/rs/zerolog/log"
)

// MaxPayloadBytes is enforced server-side too.
const MaxPayloadBytes = 52428800

const (
	deploymentPlaceholder = "{deployment_id}"
	dataRobotKeyHeader    = "DataRobot-Key"
	defaultTimeout        = 30 * time.Second
)

type ContentType string

const (
	ContentTypeCSV  ContentType = "text/plain; charset=UTF-8"
	ContentTypeJSON ContentType = "application/json"
)

type Credentials struct {
	APIKey       string
	DataRobotKey string
}

type Config struct {
	// URLTemplate contains a {deployment_id} placeholder.
	URLTemplate string
	Credentials Credentials
	Timeout     time.Duration
}

type Client struct {
	urlTemplate string
	creds       Credentials
	httpClient  *http.Client
	metrics     *metric.Recorder
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its Timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithMetrics(r *metric.Recorder) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.URLTemplate) == "" {
		return nil, fmt.Errorf("%w: url template", ErrMissingConfig)
	}
	if cfg.Credentials.APIKey == "" {
		return nil, fmt.Errorf("%w: api key", ErrMissingConfig)
	}
	if cfg.Credentials.DataRobotKey == "" {
		return nil, fmt.Errorf("%w: datarobot key", ErrMissingConfig)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		urlTemplate: cfg.URLTemplate,
		creds:       cfg.Credentials,
		httpClient:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the prediction endpoint for deploymentID.
func (c *Client) URL(deploymentID string) string {
	return strings.ReplaceAll(c.urlTemplate, deploymentPlaceholder, deploymentID)
}

// Predict posts payload to the deployment and returns the JSON response body.
// A non-2xx status yields *PredictionError. Transport failures are returned
// as-is from net/http.
func (c *Client) Predict(ctx context.Context, payload []byte, deploymentID string, ct ContentType) (json.RawMessage, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(payload) >= MaxPayloadBytes {
		return nil, &PayloadTooLargeError{Size: len(payload)}
	}

	url := c.URL(deploymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", string(ct))
	req.Header.Set("Authorization", "Bearer "+c.creds.APIKey)
	req.Header.Set(dataRobotKeyHeader, c.creds.DataRobotKey)

	log.Debug().
		Str("deployment_id", deploymentID).
		Int("payload_bytes", len(payload)).
		Str("content_type", string(ct)).
		Msg("Requesting predictions")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(start, 0)
		log.Error().Err(err).Str("deployment_id", deploymentID).Msg("Prediction request failed")
		return nil, err
	}
	defer resp.Body.Close()
	c.record(start, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("response_body", string(body)).
			Str("deployment_id", deploymentID).
			Msg("Prediction server rejected request")
		return nil, &PredictionError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to decode response: invalid JSON (%d bytes)", len(body))
	}

	log.Debug().
		Str("deployment_id", deploymentID).
		Dur("latency", time.Since(start)).
		Msg("Predictions received")

	return json.RawMessage(body), nil
}

func (c *Client) record(start time.Time, statusCode int) {
	tags := metric.BuildExternalTags(metric.TagValueDataRobot, statusCode)
	c.metrics.Timing(metric.ExternalApiRequestLatency, time.Since(start), tags)
	c.metrics.Incr(metric.ExternalApiRequestCount, tags)
}
