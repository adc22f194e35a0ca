package strategy

import (
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// CalculateRSI explicitly calculates the Relative Strength Index (RSI) over the given candles.
func CalculateRSI(candles []utilities.Candle, period int) float64 {
	if len(candles) < period+1 || period <= 0 {
		return 50.0 // neutral
	}
	gains, losses := 0.0, 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// ComputeEMASeries computes an exponential moving average series over the data.
func ComputeEMASeries(data []float64, period int) []float64 {
	if period <= 0 || len(data) == 0 {
		return nil
	}

	ema := make([]float64, len(data))
	multiplier := 2.0 / float64(period+1)

	ema[0] = data[0]
	for i := 1; i < len(data); i++ {
		ema[i] = (data[i]-ema[i-1])*multiplier + ema[i-1]
	}
	return ema
}

// CalculateMACD explicitly computes the MACD line, signal line and histogram over the candles.
func CalculateMACD(candles []utilities.Candle, fastPeriod, slowPeriod, signalPeriod int) (line, signal, histogram float64) {
	closes := extractCloses(candles)
	if len(closes) == 0 {
		return 0, 0, 0
	}
	fastEMA := ComputeEMASeries(closes, fastPeriod)
	slowEMA := ComputeEMASeries(closes, slowPeriod)

	macdSeries := make([]float64, len(closes))
	for i := range closes {
		macdSeries[i] = fastEMA[i] - slowEMA[i]
	}
	signalEMA := ComputeEMASeries(macdSeries, signalPeriod)

	idx := len(macdSeries) - 1
	line = macdSeries[idx]
	signal = signalEMA[idx]
	histogram = line - signal
	return line, signal, histogram
}

// CalculateSMA computes a simple moving average over the last 'period' values.
func CalculateSMA(data []float64, period int) float64 {
	if len(data) < period || period <= 0 {
		return 0.0
	}

	segment := data[len(data)-period:]
	sum := 0.0
	for _, v := range segment {
		sum += v
	}
	return sum / float64(period)
}

// CalculateAroon explicitly computes the Aroon-up and Aroon-down oscillators over the
// last 'period' candles. Both values are in [0,100].
func CalculateAroon(candles []utilities.Candle, period int) (up, down float64) {
	if len(candles) < period+1 || period <= 0 {
		return 50.0, 50.0 // neutral
	}
	window := candles[len(candles)-period-1:]

	highestIdx, lowestIdx := 0, 0
	for i, c := range window {
		if c.High >= window[highestIdx].High {
			highestIdx = i
		}
		if c.Low <= window[lowestIdx].Low {
			lowestIdx = i
		}
	}

	periodsSinceHigh := float64(len(window) - 1 - highestIdx)
	periodsSinceLow := float64(len(window) - 1 - lowestIdx)
	up = 100.0 * (float64(period) - periodsSinceHigh) / float64(period)
	down = 100.0 * (float64(period) - periodsSinceLow) / float64(period)
	return up, down
}

// extractCloses is a helper function to get a slice of close prices from candles.
func extractCloses(candles []utilities.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// CalculateIndicators explicitly aggregates all primary indicators into a snapshot.
func CalculateIndicators(candles []utilities.Candle, cfg utilities.IndicatorsConfig) utilities.IndicatorSnapshot {
	closes := extractCloses(candles)
	macdLine, macdSignal, macdHist := CalculateMACD(candles, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	aroonUp, aroonDown := CalculateAroon(candles, cfg.AroonPeriod)
	return utilities.IndicatorSnapshot{
		RSI:           CalculateRSI(candles, cfg.RSIPeriod),
		MACD:          macdLine,
		MACDSignal:    macdSignal,
		MACDHistogram: macdHist,
		MAShort:       CalculateSMA(closes, cfg.MAShortPeriod),
		MALong:        CalculateSMA(closes, cfg.MALongPeriod),
		AroonUp:       aroonUp,
		AroonDown:     aroonDown,
	}
}
