package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/bot"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/broker"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/broker/sim"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

func testAppConfig() *utilities.AppConfig {
	trading := utilities.DefaultTradingConfig()
	trading.OperationMode = utilities.OperationModeManual
	trading.TakeProfitPercent = 5
	trading.StopLossPercent = 10
	return &utilities.AppConfig{
		AppName: "IA-Sinais",
		Bot: utilities.BotConfig{
			PollIntervalSec:      1,
			CandleCount:          60,
			CandleTimeframeSec:   60,
			ResultPollIntervalMs: 10,
			ResultTimeoutSec:     5,
		},
		DB:      utilities.DatabaseConfig{DBPath: ":memory:"},
		Trading: trading,
	}
}

func newTestApp(t *testing.T, brk *sim.Broker) *App {
	t.Helper()
	a, err := New(testAppConfig(), utilities.NewLogger(utilities.Error))
	require.NoError(t, err)
	a.SetBrokerFactory(func(userID int64) (broker.Broker, error) { return brk, nil })
	return a
}

func TestDashboardStatsMergesLiveSession(t *testing.T) {
	brk := sim.New(200, 0.87)
	// Too few candles to trade, so the session stays quiet between polls.
	brk.ScriptCandles(make([]utilities.Candle, 5))
	a := newTestApp(t, brk)
	ctx := context.Background()

	require.NoError(t, a.StartBot(ctx, 1))
	defer a.StopBot(1)

	stats, err := a.DashboardStats(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, string(bot.StateRunning), stats.BotState)
	assert.Equal(t, 200.0, stats.Balance)
	assert.InDelta(t, 10.0, stats.TakeProfitTarget, 1e-9)
	assert.InDelta(t, 20.0, stats.StopLossTarget, 1e-9)
	assert.False(t, stats.TakeProfitReached)
	assert.False(t, stats.StopLossReached)
	// Manual mode has no scheduled window.
	assert.True(t, stats.NextSession.IsZero())
}

func TestDashboardStatsNextSessionInAutoMode(t *testing.T) {
	a := newTestApp(t, sim.New(200, 0.87))
	ctx := context.Background()

	cfg := utilities.DefaultTradingConfig()
	cfg.OperationMode = utilities.OperationModeAuto
	require.NoError(t, a.UpdateTradingConfig(ctx, 2, cfg))

	stats, err := a.DashboardStats(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, string(bot.StateIdle), stats.BotState)
	assert.False(t, stats.NextSession.IsZero())
	assert.Zero(t, stats.Balance)
}
