// File: pkg/broker/iqoption/client.go
package iqoption

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// Client is a thin REST client for the IQ Option gateway. It handles
// authentication, rate limiting and request retries; the Adapter above it maps
// responses onto the broker interface.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	limiter    *rate.Limiter
	logger     *utilities.Logger
	cfg        *utilities.IQOptionConfig

	sessionMu sync.RWMutex
	ssid      string
	balanceID int64
}

func NewClient(cfg *utilities.IQOptionConfig, httpClient *http.Client, logger *utilities.Logger) *Client {
	limit := rate.Limit(cfg.RateLimitPerSec)
	if limit <= 0 {
		limit = rate.Limit(2)
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		BaseURL:    cfg.BaseURL,
		HTTPClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
		cfg:        cfg,
	}
}

type loginResponse struct {
	SSID      string `json:"ssid"`
	BalanceID int64  `json:"balance_id"`
	Message   string `json:"message"`
}

type balanceResponse struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type candlePayload struct {
	From   int64   `json:"from"`
	Open   float64 `json:"open"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type candlesResponse struct {
	Candles []candlePayload `json:"candles"`
}

type placeOrderResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type orderResultResponse struct {
	Status     string  `json:"status"` // "open", "win", "loose", "equal"
	OpenPrice  float64 `json:"open_price"`
	ClosePrice float64 `json:"close_price"`
	Profit     float64 `json:"profit"`
}

// Login authenticates and stores the session ID for subsequent calls.
func (c *Client) Login(ctx context.Context) error {
	body := map[string]string{
		"email":        c.cfg.Email,
		"password":     c.cfg.Password,
		"account_type": c.cfg.AccountType,
	}
	var resp loginResponse
	if err := c.doPost(ctx, "/api/v2/login", body, &resp); err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	if resp.SSID == "" {
		return fmt.Errorf("login rejected: %s", resp.Message)
	}

	c.sessionMu.Lock()
	c.ssid = resp.SSID
	c.balanceID = resp.BalanceID
	c.sessionMu.Unlock()
	c.logger.LogInfo("IQOption client: authenticated, account_type=%s", c.cfg.AccountType)
	return nil
}

// Logout clears the session. The gateway call is best effort.
func (c *Client) Logout() {
	c.sessionMu.Lock()
	c.ssid = ""
	c.balanceID = 0
	c.sessionMu.Unlock()
}

func (c *Client) sessionID() string {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	return c.ssid
}

// FetchBalance returns the current balance of the active account.
func (c *Client) FetchBalance(ctx context.Context) (float64, error) {
	var resp balanceResponse
	if err := c.doGet(ctx, "/api/v2/balance", nil, &resp); err != nil {
		return 0, fmt.Errorf("fetch balance: %w", err)
	}
	return resp.Amount, nil
}

// FetchCandles returns the last 'count' candles for the asset, oldest first.
func (c *Client) FetchCandles(ctx context.Context, asset string, timeframeSec, count int, to time.Time) ([]utilities.Candle, error) {
	params := url.Values{}
	params.Set("active", asset)
	params.Set("size", strconv.Itoa(timeframeSec))
	params.Set("count", strconv.Itoa(count))
	params.Set("to", strconv.FormatInt(to.Unix(), 10))

	var resp candlesResponse
	if err := c.doGet(ctx, "/api/v2/candles", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch candles for %s: %w", asset, err)
	}

	candles := make([]utilities.Candle, 0, len(resp.Candles))
	for _, p := range resp.Candles {
		candles = append(candles, utilities.Candle{
			Timestamp: p.From,
			Open:      p.Open,
			High:      p.Max,
			Low:       p.Min,
			Close:     p.Close,
			Volume:    p.Volume,
		})
	}
	utilities.SortCandlesByTimestamp(candles)
	return candles, nil
}

// SubmitOption places a binary option and returns the gateway order ID.
func (c *Client) SubmitOption(ctx context.Context, asset string, direction utilities.Direction, amount float64, expiration time.Duration) (string, error) {
	body := map[string]interface{}{
		"active":     asset,
		"direction":  string(direction),
		"amount":     amount,
		"expiration": int(expiration.Seconds()),
	}
	var resp placeOrderResponse
	if err := c.doPost(ctx, "/api/v2/options", body, &resp); err != nil {
		return "", fmt.Errorf("submit option: %w", err)
	}
	if resp.ID == 0 {
		return "", fmt.Errorf("option rejected: %s", resp.Message)
	}
	return strconv.FormatInt(resp.ID, 10), nil
}

// FetchOptionResult returns the state of a previously placed option.
func (c *Client) FetchOptionResult(ctx context.Context, orderID string) (orderResultResponse, error) {
	var resp orderResultResponse
	if err := c.doGet(ctx, "/api/v2/options/"+orderID, nil, &resp); err != nil {
		return orderResultResponse{}, fmt.Errorf("fetch option result %s: %w", orderID, err)
	}
	return resp, nil
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	fullURL := c.BaseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("build GET %s: %w", path, err)
	}
	c.setHeaders(req)
	return utilities.DoJSONRequest(c.HTTPClient, req, c.cfg.MaxRetries, time.Duration(c.cfg.RetryDelaySec)*time.Second, result)
}

func (c *Client) doPost(ctx context.Context, path string, body interface{}, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal POST body for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)
	return utilities.DoJSONRequest(c.HTTPClient, req, c.cfg.MaxRetries, time.Duration(c.cfg.RetryDelaySec)*time.Second, result)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if ssid := c.sessionID(); ssid != "" {
		req.Header.Set("Authorization", "SSID "+ssid)
	}
}
