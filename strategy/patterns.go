package strategy

import (
	"math"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// Candlestick pattern detectors. Each operates on the last one or two candles of the
// window and is deterministic for identical input.

// IsBullishEngulfing reports whether the last candle is a bullish body engulfing the
// previous bearish body.
func IsBullishEngulfing(prev, last utilities.Candle) bool {
	prevBearish := prev.Close < prev.Open
	lastBullish := last.Close > last.Open
	return prevBearish && lastBullish &&
		last.Open <= prev.Close && last.Close >= prev.Open
}

// IsBearishEngulfing reports whether the last candle is a bearish body engulfing the
// previous bullish body.
func IsBearishEngulfing(prev, last utilities.Candle) bool {
	prevBullish := prev.Close > prev.Open
	lastBearish := last.Close < last.Open
	return prevBullish && lastBearish &&
		last.Open >= prev.Close && last.Close <= prev.Open
}

// IsHammer reports a small body with a lower wick at least twice the body and a
// negligible upper wick.
func IsHammer(c utilities.Candle) bool {
	body := math.Abs(c.Close - c.Open)
	if body == 0 {
		return false
	}
	wickLower := math.Min(c.Open, c.Close) - c.Low
	wickUpper := c.High - math.Max(c.Open, c.Close)
	return wickLower >= 2.0*body && wickUpper <= body
}

// IsShootingStar reports a small body with an upper wick at least twice the body and a
// negligible lower wick.
func IsShootingStar(c utilities.Candle) bool {
	body := math.Abs(c.Close - c.Open)
	if body == 0 {
		return false
	}
	wickUpper := c.High - math.Max(c.Open, c.Close)
	wickLower := math.Min(c.Open, c.Close) - c.Low
	return wickUpper >= 2.0*body && wickLower <= body
}

// IsDoji reports a body smaller than 10% of the candle's full range.
func IsDoji(c utilities.Candle) bool {
	rng := c.High - c.Low
	if rng == 0 {
		return false
	}
	body := math.Abs(c.Close - c.Open)
	return body/rng < 0.1
}

// DetectPatterns evaluates the enabled detectors on the last two candles and returns
// the detected pattern kinds.
func DetectPatterns(candles []utilities.Candle, cfg utilities.PatternsConfig) []utilities.PatternKind {
	if len(candles) < 2 {
		return nil
	}
	prev := candles[len(candles)-2]
	last := candles[len(candles)-1]

	var patterns []utilities.PatternKind
	if cfg.EnableEngulfing {
		if IsBullishEngulfing(prev, last) {
			patterns = append(patterns, utilities.PatternBullishEngulfing)
		}
		if IsBearishEngulfing(prev, last) {
			patterns = append(patterns, utilities.PatternBearishEngulfing)
		}
	}
	if cfg.EnableHammer && IsHammer(last) {
		patterns = append(patterns, utilities.PatternHammer)
	}
	if cfg.EnableShootingStar && IsShootingStar(last) {
		patterns = append(patterns, utilities.PatternShootingStar)
	}
	if cfg.EnableDoji && IsDoji(last) {
		patterns = append(patterns, utilities.PatternDoji)
	}
	return patterns
}

// patternVote maps a pattern kind to its directional vote. Doji abstains: it is
// recorded on the trade but carries no direction.
func patternVote(p utilities.PatternKind) utilities.Direction {
	switch p {
	case utilities.PatternBullishEngulfing, utilities.PatternHammer:
		return utilities.DirectionCall
	case utilities.PatternBearishEngulfing, utilities.PatternShootingStar:
		return utilities.DirectionPut
	default:
		return utilities.DirectionHold
	}
}
