// File: pkg/broker/iqoption/adapter.go
package iqoption

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/broker"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// Adapter implements broker.Broker on top of the IQ Option REST client.
type Adapter struct {
	client *Client
	logger *utilities.Logger

	mu        sync.RWMutex
	connected bool
}

var _ broker.Broker = (*Adapter)(nil)

func NewAdapter(cfg *utilities.IQOptionConfig, httpClient *http.Client, logger *utilities.Logger) (*Adapter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("iqoption adapter: config is nil")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("iqoption adapter: base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.RequestTimeoutSec) * time.Second}
	}
	return &Adapter{
		client: NewClient(cfg, httpClient, logger),
		logger: logger,
	}, nil
}

func (a *Adapter) Connect(ctx context.Context) error {
	if err := a.client.Login(ctx); err != nil {
		return fmt.Errorf("%w: %v", broker.ErrConnectFailed, err)
	}
	a.mu.Lock()
	a.connected = true
	a.mu.Unlock()
	return nil
}

func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	wasConnected := a.connected
	a.connected = false
	a.mu.Unlock()
	if wasConnected {
		a.client.Logout()
	}
	return nil
}

func (a *Adapter) isConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}

func (a *Adapter) GetBalance(ctx context.Context) (float64, error) {
	if !a.isConnected() {
		return 0, broker.ErrNotConnected
	}
	return a.client.FetchBalance(ctx)
}

func (a *Adapter) GetCandles(ctx context.Context, asset string, timeframeSec, count int) ([]utilities.Candle, error) {
	if !a.isConnected() {
		return nil, broker.ErrNotConnected
	}
	candles, err := a.client.FetchCandles(ctx, asset, timeframeSec, count, time.Now())
	if err != nil {
		return nil, err
	}
	if len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return candles, nil
}

func (a *Adapter) PlaceOrder(ctx context.Context, req broker.OrderRequest) (string, error) {
	if !a.isConnected() {
		return "", broker.ErrNotConnected
	}
	if req.Direction != utilities.DirectionCall && req.Direction != utilities.DirectionPut {
		return "", fmt.Errorf("%w: direction %q is not tradeable", broker.ErrOrderRejected, req.Direction)
	}
	orderID, err := a.client.SubmitOption(ctx, req.Asset, req.Direction, req.Amount, req.Expiration)
	if err != nil {
		return "", fmt.Errorf("%w: %v", broker.ErrOrderRejected, err)
	}
	a.logger.LogInfo("IQOption: placed %s on %s amount=%.2f exp=%s order_id=%s",
		req.Direction, req.Asset, req.Amount, req.Expiration, orderID)
	return orderID, nil
}

func (a *Adapter) GetOrderResult(ctx context.Context, orderID string) (broker.OrderResult, error) {
	if !a.isConnected() {
		return broker.OrderResult{}, broker.ErrNotConnected
	}
	resp, err := a.client.FetchOptionResult(ctx, orderID)
	if err != nil {
		return broker.OrderResult{}, err
	}

	result := broker.OrderResult{
		OrderID:    orderID,
		EntryPrice: resp.OpenPrice,
		ExitPrice:  resp.ClosePrice,
		Profit:     resp.Profit,
	}
	switch resp.Status {
	case "open":
		return broker.OrderResult{}, broker.ErrResultPending
	case "win":
		result.Result = utilities.ResultWin
	case "loose", "loss":
		result.Result = utilities.ResultLoss
	case "equal":
		result.Result = utilities.ResultTie
	default:
		return broker.OrderResult{}, fmt.Errorf("unknown option status %q for order %s", resp.Status, orderID)
	}
	return result, nil
}
