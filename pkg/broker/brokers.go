// File: pkg/broker/brokers.go
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// Sentinel errors shared by all broker implementations.
var (
	// ErrConnectFailed wraps any failure to establish or authenticate a broker session.
	ErrConnectFailed = errors.New("broker: connect failed")

	// ErrNotConnected is returned by operations invoked before a successful Connect.
	ErrNotConnected = errors.New("broker: not connected")

	// ErrOrderRejected is returned when the broker refuses an order placement.
	ErrOrderRejected = errors.New("broker: order rejected")

	// ErrResultPending is returned by GetOrderResult while the option has not expired yet.
	ErrResultPending = errors.New("broker: order result pending")
)

// OrderRequest describes one binary option placement.
type OrderRequest struct {
	Asset      string              `json:"asset"`
	Direction  utilities.Direction `json:"direction"`
	Amount     float64             `json:"amount"`
	Expiration time.Duration       `json:"expiration"`
}

// OrderResult is the settled outcome of a placed option.
type OrderResult struct {
	OrderID    string                `json:"order_id"`
	Result     utilities.TradeResult `json:"result"`
	EntryPrice float64               `json:"entry_price"`
	ExitPrice  float64               `json:"exit_price"`
	Profit     float64               `json:"profit"`
}

// Broker defines the interface for interacting with a binary options brokerage.
type Broker interface {
	// Connect establishes and authenticates the broker session.
	Connect(ctx context.Context) error

	// Disconnect tears the session down. Safe to call when not connected.
	Disconnect() error

	// GetBalance retrieves the current account balance.
	GetBalance(ctx context.Context) (float64, error)

	// GetCandles retrieves the most recent 'count' candles for the asset at the
	// given timeframe, oldest first.
	GetCandles(ctx context.Context, asset string, timeframeSec, count int) ([]utilities.Candle, error)

	// PlaceOrder submits a binary option and returns the broker's order ID.
	PlaceOrder(ctx context.Context, req OrderRequest) (string, error)

	// GetOrderResult retrieves the settled outcome of an order. Returns
	// ErrResultPending while the option is still open.
	GetOrderResult(ctx context.Context, orderID string) (OrderResult, error)
}
