package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

func risingCandles(n int) []utilities.Candle {
	candles := make([]utilities.Candle, n)
	for i := range candles {
		close := 100.0 + float64(i)
		candles[i] = utilities.Candle{
			Timestamp: int64(1700000000 + i*60),
			Open:      close - 0.5,
			High:      close + 0.1,
			Low:       close - 0.6,
			Close:     close,
			Volume:    1000,
		}
	}
	return candles
}

func fallingCandles(n int) []utilities.Candle {
	candles := make([]utilities.Candle, n)
	for i := range candles {
		close := 200.0 - float64(i)
		candles[i] = utilities.Candle{
			Timestamp: int64(1700000000 + i*60),
			Open:      close + 0.5,
			High:      close + 0.6,
			Low:       close - 0.1,
			Close:     close,
			Volume:    1000,
		}
	}
	return candles
}

func TestMinCandles(t *testing.T) {
	cfg := utilities.DefaultTradingConfig()
	// MALongPeriod (50) dominates the defaults; the MACD warm-up (26+9) does not.
	assert.Equal(t, 51, MinCandles(cfg.Indicators))

	// With the long MA shortened, the combined MACD slow+signal warm-up wins.
	ind := cfg.Indicators
	ind.MALongPeriod = 20
	assert.Equal(t, 36, MinCandles(ind))
}

func TestEvaluateInsufficientData(t *testing.T) {
	engine := NewEngine(nil)
	cfg := utilities.DefaultTradingConfig()

	_, err := engine.Evaluate(risingCandles(10), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestEvaluateUptrendSignalsCall(t *testing.T) {
	engine := NewEngine(nil)
	cfg := utilities.DefaultTradingConfig()

	signal, err := engine.Evaluate(risingCandles(60), cfg)
	require.NoError(t, err)

	// MACD, MA cross and Aroon all agree on CALL; RSI reads the uninterrupted
	// climb as overbought and dissents.
	assert.Equal(t, utilities.DirectionCall, signal.Direction)
	assert.Equal(t, 0.75, signal.Confidence)
	assert.Greater(t, signal.Indicators.MACDHistogram, 0.0)
	assert.Greater(t, signal.Indicators.MAShort, signal.Indicators.MALong)
}

func TestEvaluateDowntrendSignalsPut(t *testing.T) {
	engine := NewEngine(nil)
	cfg := utilities.DefaultTradingConfig()

	signal, err := engine.Evaluate(fallingCandles(60), cfg)
	require.NoError(t, err)

	assert.Equal(t, utilities.DirectionPut, signal.Direction)
	assert.Equal(t, 0.75, signal.Confidence)
	assert.Less(t, signal.Indicators.MACDHistogram, 0.0)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	engine := NewEngine(nil)
	cfg := utilities.DefaultTradingConfig()
	candles := risingCandles(60)

	first, err := engine.Evaluate(candles, cfg)
	require.NoError(t, err)
	second, err := engine.Evaluate(candles, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTallyVotes(t *testing.T) {
	call := utilities.DirectionCall
	put := utilities.DirectionPut

	tests := []struct {
		name          string
		votes         []vote
		wantDirection utilities.Direction
		wantConf      float64
	}{
		{"no votes", nil, utilities.DirectionHold, 0},
		{"tie", []vote{{"a", call}, {"b", put}}, utilities.DirectionHold, 0},
		{"unanimous call", []vote{{"a", call}, {"b", call}}, call, 1.0},
		{"call majority", []vote{{"a", call}, {"b", call}, {"c", put}, {"d", call}}, call, 0.75},
		{"put majority", []vote{{"a", put}, {"b", put}, {"c", call}}, put, 2.0 / 3.0},
		{"abstentions ignored", []vote{{"a", call}, {"b", utilities.DirectionHold}}, call, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			direction, confidence, _ := tallyVotes(tt.votes)
			assert.Equal(t, tt.wantDirection, direction)
			assert.InDelta(t, tt.wantConf, confidence, 1e-9)
		})
	}
}
