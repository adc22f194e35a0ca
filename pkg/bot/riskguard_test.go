package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

func riskConfig(tpPercent, slPercent float64) utilities.TradingConfig {
	cfg := utilities.DefaultTradingConfig()
	cfg.TakeProfitPercent = tpPercent
	cfg.StopLossPercent = slPercent
	return cfg
}

func TestRiskGuardTakeProfitFiresOnce(t *testing.T) {
	// 10% of a 1000 balance: target is +100.
	g := NewRiskGuard(1000, riskConfig(10, 50), nil)

	require.NoError(t, g.Record(60))
	assert.False(t, g.Tripped())

	assert.ErrorIs(t, g.Record(50), ErrTakeProfitReached)
	assert.True(t, g.Tripped())

	// Further records keep accumulating but never re-fire.
	require.NoError(t, g.Record(100))
	assert.Equal(t, 210.0, g.SessionProfit())
}

func TestRiskGuardStopLossFiresOnce(t *testing.T) {
	// 5% of 1000: limit is -50.
	g := NewRiskGuard(1000, riskConfig(50, 5), nil)

	require.NoError(t, g.Record(-30))
	assert.ErrorIs(t, g.Record(-25), ErrStopLossReached)
	require.NoError(t, g.Record(-10))
}

func TestRiskGuardTargetsFixedAtSessionStart(t *testing.T) {
	g := NewRiskGuard(100, riskConfig(50, 50), nil)

	// Profit grows the balance, but the +50 target stays anchored to the
	// session-start balance.
	require.NoError(t, g.Record(49))
	assert.ErrorIs(t, g.Record(1), ErrTakeProfitReached)
}

func TestRiskGuardZeroPercentDisablesSide(t *testing.T) {
	g := NewRiskGuard(1000, riskConfig(0, 0), nil)

	require.NoError(t, g.Record(10000))
	require.NoError(t, g.Record(-20000))
	assert.False(t, g.Tripped())
}
