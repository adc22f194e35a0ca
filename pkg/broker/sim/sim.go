// File: pkg/broker/sim/sim.go

// Package sim provides a deterministic in-memory broker used by tests and by
// paper-trading runs. Candle windows, balances and order outcomes are scripted
// up front so a run replays the same way every time.
package sim

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/broker"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// Broker is a scripted broker.Broker implementation.
type Broker struct {
	mu sync.Mutex

	connected    bool
	balance      float64
	candleScript [][]utilities.Candle
	candleCalls  int
	results      []utilities.TradeResult
	payout       float64

	orders      map[string]broker.OrderResult
	placed      []broker.OrderRequest
	nextOrderID int

	// FailConnect makes Connect return ErrConnectFailed.
	FailConnect bool
	// FailBalance makes GetBalance fail while connected.
	FailBalance bool
	// FailCandles makes GetCandles fail after the script is exhausted
	// instead of replaying the last window.
	FailCandles bool
}

var _ broker.Broker = (*Broker)(nil)

// New returns a sim broker with the given starting balance and a payout ratio
// applied to winning stakes (0.87 means an 87% return on a win).
func New(balance, payout float64) *Broker {
	return &Broker{
		balance: balance,
		payout:  payout,
		orders:  make(map[string]broker.OrderResult),
	}
}

// ScriptCandles queues candle windows returned by successive GetCandles calls.
// After the script runs out the last window is replayed.
func (b *Broker) ScriptCandles(windows ...[]utilities.Candle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.candleScript = append(b.candleScript, windows...)
}

// ScriptResults queues outcomes returned by successive settled orders.
func (b *Broker) ScriptResults(results ...utilities.TradeResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results = append(b.results, results...)
}

func (b *Broker) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailConnect {
		return fmt.Errorf("%w: scripted failure", broker.ErrConnectFailed)
	}
	b.connected = true
	return nil
}

func (b *Broker) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	return nil
}

func (b *Broker) GetBalance(ctx context.Context) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return 0, broker.ErrNotConnected
	}
	if b.FailBalance {
		return 0, fmt.Errorf("sim broker: scripted balance failure")
	}
	return b.balance, nil
}

func (b *Broker) GetCandles(ctx context.Context, asset string, timeframeSec, count int) ([]utilities.Candle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return nil, broker.ErrNotConnected
	}
	if len(b.candleScript) == 0 {
		return nil, fmt.Errorf("sim broker: no candle script for %s", asset)
	}

	idx := b.candleCalls
	if idx >= len(b.candleScript) {
		if b.FailCandles {
			return nil, fmt.Errorf("sim broker: candle script exhausted after %d calls", b.candleCalls)
		}
		idx = len(b.candleScript) - 1
	}
	b.candleCalls++

	window := b.candleScript[idx]
	out := make([]utilities.Candle, len(window))
	copy(out, window)
	return out, nil
}

func (b *Broker) PlaceOrder(ctx context.Context, req broker.OrderRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return "", broker.ErrNotConnected
	}
	if req.Direction != utilities.DirectionCall && req.Direction != utilities.DirectionPut {
		return "", fmt.Errorf("%w: direction %q", broker.ErrOrderRejected, req.Direction)
	}
	if req.Amount <= 0 || req.Amount > b.balance {
		return "", fmt.Errorf("%w: amount %.2f with balance %.2f", broker.ErrOrderRejected, req.Amount, b.balance)
	}

	b.nextOrderID++
	orderID := "sim-" + strconv.Itoa(b.nextOrderID)
	b.placed = append(b.placed, req)

	result := utilities.ResultWin
	if len(b.results) > 0 {
		result = b.results[0]
		b.results = b.results[1:]
	}

	settled := broker.OrderResult{
		OrderID:    orderID,
		Result:     result,
		EntryPrice: 1.0,
		ExitPrice:  1.0,
	}
	switch result {
	case utilities.ResultWin:
		settled.Profit = req.Amount * b.payout
		settled.ExitPrice = 1.001
	case utilities.ResultLoss:
		settled.Profit = -req.Amount
		settled.ExitPrice = 0.999
	}
	b.balance += settled.Profit
	b.orders[orderID] = settled
	return orderID, nil
}

func (b *Broker) GetOrderResult(ctx context.Context, orderID string) (broker.OrderResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return broker.OrderResult{}, broker.ErrNotConnected
	}
	result, ok := b.orders[orderID]
	if !ok {
		return broker.OrderResult{}, fmt.Errorf("sim broker: unknown order %s", orderID)
	}
	return result, nil
}

// PlacedOrders returns a copy of every order placed so far.
func (b *Broker) PlacedOrders() []broker.OrderRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]broker.OrderRequest, len(b.placed))
	copy(out, b.placed)
	return out
}

// Connected reports whether the broker session is logged in.
func (b *Broker) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Balance returns the current simulated balance.
func (b *Broker) Balance() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance
}
