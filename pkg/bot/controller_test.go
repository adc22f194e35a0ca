package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/broker/sim"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

type memStore struct {
	mu      sync.Mutex
	records []utilities.TradeRecord
}

func (s *memStore) SaveTradeRecord(ctx context.Context, rec utilities.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func testCandles(n int, rising bool) []utilities.Candle {
	candles := make([]utilities.Candle, n)
	for i := range candles {
		close := 100.0 + float64(i)
		if !rising {
			close = 200.0 - float64(i)
		}
		open, high, low := close-0.5, close+0.1, close-0.6
		if !rising {
			open, high, low = close+0.5, close+0.6, close-0.1
		}
		candles[i] = utilities.Candle{
			Timestamp: int64(1700000000 + i*60),
			Open:      open, High: high, Low: low, Close: close,
			Volume: 1000,
		}
	}
	return candles
}

func testAppConfig(trading utilities.TradingConfig) *utilities.AppConfig {
	return &utilities.AppConfig{
		Bot: utilities.BotConfig{
			PollIntervalSec:      1,
			CandleCount:          60,
			CandleTimeframeSec:   60,
			ResultPollIntervalMs: 10,
			ResultTimeoutSec:     5,
		},
		Trading: trading,
	}
}

func newTestController(t *testing.T, brk *sim.Broker, trading utilities.TradingConfig) (*Controller, *memStore) {
	t.Helper()
	store := &memStore{}
	logger := utilities.NewLogger(utilities.Error)
	cache := NewBalanceCache(5*time.Minute, nil)
	c := NewController(1, testAppConfig(trading), brk, store, cache, nil, nil, logger)
	c.pollInterval = 5 * time.Millisecond
	c.resultInterval = time.Millisecond
	return c, store
}

func lifecycleConfig() utilities.TradingConfig {
	cfg := utilities.DefaultTradingConfig()
	cfg.OperationMode = utilities.OperationModeManual
	cfg.TakeProfitPercent = 0
	cfg.StopLossPercent = 0
	return cfg
}

func waitForState(t *testing.T, c *Controller, want BotState) {
	t.Helper()
	assert.Eventually(t, func() bool { return c.Status().State == want },
		3*time.Second, 5*time.Millisecond, "waiting for state %s", want)
}

func TestControllerStartStopLifecycle(t *testing.T) {
	brk := sim.New(1000, 0.87)
	brk.ScriptCandles(testCandles(60, true))
	c, store := newTestController(t, brk, lifecycleConfig())

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateRunning, c.Status().State)

	assert.Eventually(t, func() bool { return store.count() >= 1 },
		3*time.Second, 5*time.Millisecond, "waiting for a settled trade")

	c.Stop()
	waitForState(t, c, StateIdle)

	// Sessions are restartable after a clean stop.
	require.NoError(t, c.Start(context.Background()))
	c.Stop()
	waitForState(t, c, StateIdle)
}

func TestControllerRejectsDoubleStart(t *testing.T) {
	brk := sim.New(1000, 0.87)
	brk.ScriptCandles(testCandles(60, true))
	c, _ := newTestController(t, brk, lifecycleConfig())

	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)

	c.Stop()
	waitForState(t, c, StateIdle)
}

func TestControllerStartRejectsInvalidConfig(t *testing.T) {
	brk := sim.New(1000, 0.87)
	cfg := lifecycleConfig()
	cfg.Asset = ""
	c, _ := newTestController(t, brk, cfg)

	err := c.Start(context.Background())
	require.Error(t, err)
	var cfgErr *utilities.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, StateIdle, c.Status().State)
}

func TestControllerConnectFailureEntersErrorState(t *testing.T) {
	brk := sim.New(1000, 0.87)
	brk.FailConnect = true
	c, _ := newTestController(t, brk, lifecycleConfig())

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateError, c.Status().State)
	assert.NotEmpty(t, c.Status().LastError)

	// An errored session can be restarted.
	brk.FailConnect = false
	brk.ScriptCandles(testCandles(60, true))
	require.NoError(t, c.Start(context.Background()))
	c.Stop()
	waitForState(t, c, StateIdle)
}

func TestControllerBalanceFailureAtStartDisconnects(t *testing.T) {
	brk := sim.New(1000, 0.87)
	brk.FailBalance = true
	c, _ := newTestController(t, brk, lifecycleConfig())

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateError, c.Status().State)

	// The broker session opened by Connect must not be left logged in.
	assert.False(t, brk.Connected())
}

func TestControllerTakeProfitEndsSession(t *testing.T) {
	brk := sim.New(1000, 0.87)
	brk.ScriptCandles(testCandles(60, true))
	brk.ScriptResults(utilities.ResultWin)

	cfg := lifecycleConfig()
	// 1% of 1000: one winning 20.00 stake at 87% payout crosses the target.
	cfg.TakeProfitPercent = 1
	c, store := newTestController(t, brk, cfg)

	require.NoError(t, c.Start(context.Background()))
	waitForState(t, c, StateIdle)

	status := c.Status()
	assert.Equal(t, 1, status.Wins)
	assert.Contains(t, status.StopReason, "take profit")
	assert.Equal(t, 1, store.count())
}

func TestControllerStopLossEndsSession(t *testing.T) {
	brk := sim.New(1000, 0.87)
	brk.ScriptCandles(testCandles(60, false))
	brk.ScriptResults(utilities.ResultLoss)

	cfg := lifecycleConfig()
	cfg.StopLossPercent = 1
	cfg.MartingaleEnabled = false
	c, _ := newTestController(t, brk, cfg)

	require.NoError(t, c.Start(context.Background()))
	waitForState(t, c, StateIdle)

	status := c.Status()
	assert.Equal(t, 1, status.Losses)
	assert.Contains(t, status.StopReason, "stop loss")
}

func TestControllerMartingaleExhaustionEndsSession(t *testing.T) {
	brk := sim.New(1000, 0.87)
	brk.ScriptCandles(testCandles(60, false))
	brk.ScriptResults(utilities.ResultLoss, utilities.ResultLoss)

	cfg := lifecycleConfig()
	cfg.MartingaleEnabled = true
	cfg.MartingaleMultiplier = 2.0
	cfg.MaxMartingaleLevels = 1
	c, _ := newTestController(t, brk, cfg)

	require.NoError(t, c.Start(context.Background()))
	waitForState(t, c, StateIdle)

	status := c.Status()
	assert.Equal(t, 2, status.Losses)
	assert.Contains(t, status.StopReason, "martingale")
}

func TestControllerBrokerFailureMidLoopEntersErrorState(t *testing.T) {
	brk := sim.New(1000, 0.87)
	// Short window: first cycle reports insufficient data, second cycle the
	// exhausted script fails the candle fetch.
	brk.ScriptCandles(testCandles(5, true))
	brk.FailCandles = true
	c, _ := newTestController(t, brk, lifecycleConfig())

	require.NoError(t, c.Start(context.Background()))
	waitForState(t, c, StateError)
	assert.NotEmpty(t, c.Status().LastError)
}

func TestControllerPausesOutsideTradingWindow(t *testing.T) {
	brk := sim.New(1000, 0.87)
	brk.ScriptCandles(testCandles(60, true))

	cfg := lifecycleConfig()
	cfg.OperationMode = utilities.OperationModeAuto
	c, store := newTestController(t, brk, cfg)

	current := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	c.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	require.NoError(t, c.Start(context.Background()))
	waitForState(t, c, StatePaused)
	assert.Zero(t, store.count())

	status := c.Status()
	assert.Equal(t, 10, status.NextSession.Hour())

	// The window opens: trading resumes.
	mu.Lock()
	current = time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)
	mu.Unlock()

	assert.Eventually(t, func() bool { return store.count() >= 1 },
		3*time.Second, 5*time.Millisecond, "waiting for a trade inside the window")
	assert.Equal(t, utilities.SessionMorning, c.Status().LastTrade.SessionType)

	c.Stop()
	waitForState(t, c, StateIdle)
}

func TestControllerStopIsIdempotent(t *testing.T) {
	brk := sim.New(1000, 0.87)
	brk.ScriptCandles(testCandles(60, true))
	c, _ := newTestController(t, brk, lifecycleConfig())

	c.Stop() // stop before start is a no-op
	assert.Equal(t, StateIdle, c.Status().State)

	require.NoError(t, c.Start(context.Background()))
	c.Stop()
	c.Stop()
	waitForState(t, c, StateIdle)
}

func TestControllerUpdateConfigRejectedWhileRunning(t *testing.T) {
	brk := sim.New(1000, 0.87)
	brk.ScriptCandles(testCandles(60, true))
	c, _ := newTestController(t, brk, lifecycleConfig())

	require.NoError(t, c.Start(context.Background()))
	err := c.UpdateTradingConfig(lifecycleConfig())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	c.Stop()
	waitForState(t, c, StateIdle)

	require.NoError(t, c.UpdateTradingConfig(lifecycleConfig()))
}

func TestRegistryPerUserControllers(t *testing.T) {
	registry := NewRegistry(func(userID int64) *Controller {
		brk := sim.New(1000, 0.87)
		brk.ScriptCandles(testCandles(60, true))
		store := &memStore{}
		cache := NewBalanceCache(5*time.Minute, nil)
		logger := utilities.NewLogger(utilities.Error)
		return NewController(userID, testAppConfig(lifecycleConfig()), brk, store, cache, nil, nil, logger)
	})

	a := registry.Controller(1)
	b := registry.Controller(2)
	assert.NotSame(t, a, b)
	assert.Same(t, a, registry.Controller(1))

	_, ok := registry.Lookup(3)
	assert.False(t, ok)

	statuses := registry.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, int64(1), statuses[0].UserID)
	assert.Equal(t, int64(2), statuses[1].UserID)
}
