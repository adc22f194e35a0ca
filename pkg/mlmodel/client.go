// File: pkg/mlmodel/client.go
package mlmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/strategy"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// Client calls the external ML prediction service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cfg        *utilities.MLServiceConfig
	logger     *utilities.Logger
}

var _ Predictor = (*Client)(nil)

func NewClient(cfg *utilities.MLServiceConfig, httpClient *http.Client, logger *utilities.Logger) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("mlmodel client: base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.RequestTimeoutSec) * time.Second}
	}
	limit := rate.Limit(cfg.RateLimitPerSec)
	if limit <= 0 {
		limit = rate.Limit(5)
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		cfg:        cfg,
		logger:     logger,
	}, nil
}

type predictionResponse struct {
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
}

// Predict posts the feature vector and maps the service response. A service
// answer of "hold" or an unknown direction is treated as no opinion.
func (c *Client) Predict(ctx context.Context, features FeatureVector) (*strategy.MLPrediction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	payload, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("marshal features: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var resp predictionResponse
	if err := utilities.DoJSONRequest(c.httpClient, req, c.cfg.MaxRetries, time.Duration(c.cfg.RetryDelaySec)*time.Second, &resp); err != nil {
		return nil, fmt.Errorf("predict request: %w", err)
	}

	direction := utilities.Direction(resp.Direction)
	if direction != utilities.DirectionCall && direction != utilities.DirectionPut {
		c.logger.LogDebug("mlmodel: service returned %q, treating as no opinion", resp.Direction)
		return nil, nil
	}
	return &strategy.MLPrediction{Direction: direction, Confidence: resp.Confidence}, nil
}
