package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

func candlesFromCloses(closes []float64) []utilities.Candle {
	candles := make([]utilities.Candle, len(closes))
	for i, c := range closes {
		candles[i] = utilities.Candle{
			Timestamp: int64(1700000000 + i*60),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1,
		}
	}
	return candles
}

func TestCalculateRSI(t *testing.T) {
	t.Run("neutral on short window", func(t *testing.T) {
		assert.Equal(t, 50.0, CalculateRSI(candlesFromCloses([]float64{1, 2, 3}), 14))
	})

	t.Run("all gains saturate at 100", func(t *testing.T) {
		closes := make([]float64, 15)
		for i := range closes {
			closes[i] = 100 + float64(i)
		}
		assert.Equal(t, 100.0, CalculateRSI(candlesFromCloses(closes), 14))
	})

	t.Run("balanced gains and losses read neutral", func(t *testing.T) {
		closes := []float64{100}
		for i := 0; i < 7; i++ {
			closes = append(closes, closes[len(closes)-1]+1)
			closes = append(closes, closes[len(closes)-1]-1)
		}
		assert.InDelta(t, 50.0, CalculateRSI(candlesFromCloses(closes), 14), 1e-9)
	})

	t.Run("two to one gain ratio", func(t *testing.T) {
		// 14 changes: five +2, five -1, four flat. RS = 10/5 = 2.
		closes := []float64{100}
		for i := 0; i < 5; i++ {
			closes = append(closes, closes[len(closes)-1]+2)
		}
		for i := 0; i < 5; i++ {
			closes = append(closes, closes[len(closes)-1]-1)
		}
		for i := 0; i < 4; i++ {
			closes = append(closes, closes[len(closes)-1])
		}
		assert.InDelta(t, 66.6667, CalculateRSI(candlesFromCloses(closes), 14), 0.001)
	})
}

func TestCalculateSMA(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, 8.0, CalculateSMA(data, 5))
	assert.Equal(t, 5.5, CalculateSMA(data, 10))
	assert.Equal(t, 0.0, CalculateSMA(data, 11))
}

func TestComputeEMASeries(t *testing.T) {
	series := ComputeEMASeries([]float64{10, 10, 10, 10}, 3)
	assert.Len(t, series, 4)
	for _, v := range series {
		assert.Equal(t, 10.0, v)
	}

	assert.Nil(t, ComputeEMASeries(nil, 3))
	assert.Nil(t, ComputeEMASeries([]float64{1}, 0))
}

func TestCalculateAroon(t *testing.T) {
	t.Run("neutral on short window", func(t *testing.T) {
		up, down := CalculateAroon(candlesFromCloses([]float64{1, 2}), 14)
		assert.Equal(t, 50.0, up)
		assert.Equal(t, 50.0, down)
	})

	t.Run("fresh high reads full up", func(t *testing.T) {
		up, down := CalculateAroon(risingCandles(20), 14)
		assert.Equal(t, 100.0, up)
		assert.Equal(t, 0.0, down)
	})

	t.Run("fresh low reads full down", func(t *testing.T) {
		up, down := CalculateAroon(fallingCandles(20), 14)
		assert.Equal(t, 0.0, up)
		assert.Equal(t, 100.0, down)
	})
}

func TestCalculateMACDTrendSign(t *testing.T) {
	_, _, histUp := CalculateMACD(risingCandles(60), 12, 26, 9)
	assert.Greater(t, histUp, 0.0)

	_, _, histDown := CalculateMACD(fallingCandles(60), 12, 26, 9)
	assert.Less(t, histDown, 0.0)
}

func TestCalculateIndicatorsSnapshot(t *testing.T) {
	cfg := utilities.DefaultTradingConfig().Indicators
	snapshot := CalculateIndicators(risingCandles(60), cfg)

	assert.Greater(t, snapshot.MAShort, snapshot.MALong)
	assert.Equal(t, 100.0, snapshot.AroonUp)
	assert.GreaterOrEqual(t, snapshot.RSI, 70.0)
}
