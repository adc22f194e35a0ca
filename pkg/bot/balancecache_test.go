package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/broker"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// countingBroker stubs only GetBalance and counts how often it is hit.
type countingBroker struct {
	mu      sync.Mutex
	balance float64
	calls   int
	fail    bool
}

func (b *countingBroker) Connect(ctx context.Context) error { return nil }
func (b *countingBroker) Disconnect() error                 { return nil }

func (b *countingBroker) GetBalance(ctx context.Context) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.fail {
		return 0, errors.New("balance endpoint down")
	}
	return b.balance, nil
}

func (b *countingBroker) GetCandles(ctx context.Context, asset string, timeframeSec, count int) ([]utilities.Candle, error) {
	return nil, broker.ErrNotConnected
}

func (b *countingBroker) PlaceOrder(ctx context.Context, req broker.OrderRequest) (string, error) {
	return "", broker.ErrNotConnected
}

func (b *countingBroker) GetOrderResult(ctx context.Context, orderID string) (broker.OrderResult, error) {
	return broker.OrderResult{}, broker.ErrNotConnected
}

func TestBalanceCacheServesFreshEntry(t *testing.T) {
	brk := &countingBroker{balance: 500}
	cache := NewBalanceCache(5*time.Minute, nil)

	for i := 0; i < 5; i++ {
		balance, err := cache.Get(context.Background(), 1, brk)
		require.NoError(t, err)
		assert.Equal(t, 500.0, balance)
	}
	assert.Equal(t, 1, brk.calls)
}

func TestBalanceCacheExpiresAfterTTL(t *testing.T) {
	brk := &countingBroker{balance: 500}
	cache := NewBalanceCache(5*time.Minute, nil)

	current := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	_, err := cache.Get(context.Background(), 1, brk)
	require.NoError(t, err)

	current = current.Add(4 * time.Minute)
	_, err = cache.Get(context.Background(), 1, brk)
	require.NoError(t, err)
	assert.Equal(t, 1, brk.calls)

	current = current.Add(2 * time.Minute)
	_, err = cache.Get(context.Background(), 1, brk)
	require.NoError(t, err)
	assert.Equal(t, 2, brk.calls)
}

func TestBalanceCacheIsPerUser(t *testing.T) {
	brk := &countingBroker{balance: 500}
	cache := NewBalanceCache(5*time.Minute, nil)

	_, err := cache.Get(context.Background(), 1, brk)
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), 2, brk)
	require.NoError(t, err)
	assert.Equal(t, 2, brk.calls)
}

func TestBalanceCacheInvalidateForcesRefetch(t *testing.T) {
	brk := &countingBroker{balance: 500}
	cache := NewBalanceCache(5*time.Minute, nil)

	_, err := cache.Get(context.Background(), 1, brk)
	require.NoError(t, err)

	cache.Invalidate(1)
	brk.balance = 600

	balance, err := cache.Get(context.Background(), 1, brk)
	require.NoError(t, err)
	assert.Equal(t, 600.0, balance)
	assert.Equal(t, 2, brk.calls)
}

func TestBalanceCachePeekNeverFetches(t *testing.T) {
	brk := &countingBroker{balance: 500}
	cache := NewBalanceCache(5*time.Minute, nil)

	_, ok := cache.Peek(1)
	assert.False(t, ok)

	_, err := cache.Get(context.Background(), 1, brk)
	require.NoError(t, err)

	balance, ok := cache.Peek(1)
	assert.True(t, ok)
	assert.Equal(t, 500.0, balance)
	assert.Equal(t, 1, brk.calls)
}

func TestBalanceCacheFetchErrorPropagates(t *testing.T) {
	brk := &countingBroker{fail: true}
	cache := NewBalanceCache(5*time.Minute, nil)

	_, err := cache.Get(context.Background(), 1, brk)
	assert.Error(t, err)
}
