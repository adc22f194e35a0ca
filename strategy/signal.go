package strategy

import (
	"errors"
	"fmt"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// ErrInsufficientData is returned when the candle window is too short to compute the
// configured indicators. The caller treats it as a HOLD for that iteration.
var ErrInsufficientData = errors.New("strategy: insufficient candle data")

// Signal is the engine's directional recommendation for one candle window.
type Signal struct {
	Direction  utilities.Direction         `json:"direction"`
	Confidence float64                     `json:"confidence"`
	Indicators utilities.IndicatorSnapshot `json:"indicators"`
	Patterns   []utilities.PatternKind     `json:"patterns"`
	Reason     string                      `json:"reason"`
}

// Engine computes technical signals from candle windows. It is stateless: identical
// input windows and config always produce identical signals.
type Engine struct {
	logger *utilities.Logger
}

// NewEngine constructs a new signal engine.
func NewEngine(logger *utilities.Logger) *Engine {
	return &Engine{logger: logger}
}

// MinCandles returns the minimum window length required by the configured
// indicators. The MACD signal line needs the slow EMA warmed up first, so its
// requirement is the slow and signal periods combined.
func MinCandles(cfg utilities.IndicatorsConfig) int {
	maxPeriod := cfg.RSIPeriod
	for _, p := range []int{cfg.MACDSlow + cfg.MACDSignal, cfg.MAShortPeriod, cfg.MALongPeriod, cfg.AroonPeriod} {
		maxPeriod = utilities.MaxInt(maxPeriod, p)
	}
	return maxPeriod + 1
}

type vote struct {
	source    string
	direction utilities.Direction
}

// tallyVotes resolves the directional votes by simple majority. A tie or an empty
// ballot yields HOLD; confidence is the agreeing fraction of non-abstaining votes.
func tallyVotes(votes []vote) (utilities.Direction, float64, string) {
	calls, puts := 0, 0
	for _, v := range votes {
		switch v.direction {
		case utilities.DirectionCall:
			calls++
		case utilities.DirectionPut:
			puts++
		}
	}

	total := calls + puts
	if total == 0 || calls == puts {
		return utilities.DirectionHold, 0, fmt.Sprintf("no majority (%d call / %d put)", calls, puts)
	}

	direction := utilities.DirectionCall
	if puts > calls {
		direction = utilities.DirectionPut
	}
	confidence := float64(utilities.MaxInt(calls, puts)) / float64(total)
	reason := fmt.Sprintf("%d of %d votes %s", utilities.MaxInt(calls, puts), total, direction)
	return direction, confidence, reason
}

// Evaluate computes indicators and patterns over the window and aggregates their
// directional votes into a single signal.
func (e *Engine) Evaluate(candles []utilities.Candle, cfg utilities.TradingConfig) (Signal, error) {
	minLen := MinCandles(cfg.Indicators)
	if len(candles) < minLen {
		return Signal{}, fmt.Errorf("%w: have %d candles, need %d", ErrInsufficientData, len(candles), minLen)
	}

	snapshot := CalculateIndicators(candles, cfg.Indicators)
	patterns := DetectPatterns(candles, cfg.Patterns)

	var votes []vote

	// RSI: oversold implies a bounce up, overbought a move down.
	if snapshot.RSI <= cfg.Indicators.RSIOversold {
		votes = append(votes, vote{"rsi", utilities.DirectionCall})
	} else if snapshot.RSI >= cfg.Indicators.RSIOverbought {
		votes = append(votes, vote{"rsi", utilities.DirectionPut})
	}

	// MACD histogram sign.
	if snapshot.MACDHistogram > 0 {
		votes = append(votes, vote{"macd", utilities.DirectionCall})
	} else if snapshot.MACDHistogram < 0 {
		votes = append(votes, vote{"macd", utilities.DirectionPut})
	}

	// Moving average cross.
	if snapshot.MAShort > snapshot.MALong {
		votes = append(votes, vote{"ma_cross", utilities.DirectionCall})
	} else if snapshot.MAShort < snapshot.MALong {
		votes = append(votes, vote{"ma_cross", utilities.DirectionPut})
	}

	// Aroon trend dominance.
	if snapshot.AroonUp > 70 && snapshot.AroonUp > snapshot.AroonDown {
		votes = append(votes, vote{"aroon", utilities.DirectionCall})
	} else if snapshot.AroonDown > 70 && snapshot.AroonDown > snapshot.AroonUp {
		votes = append(votes, vote{"aroon", utilities.DirectionPut})
	}

	for _, p := range patterns {
		if dir := patternVote(p); dir != utilities.DirectionHold {
			votes = append(votes, vote{string(p), dir})
		}
	}

	direction, confidence, reason := tallyVotes(votes)
	signal := Signal{
		Direction:  direction,
		Confidence: confidence,
		Indicators: snapshot,
		Patterns:   patterns,
		Reason:     reason,
	}

	if e.logger != nil {
		e.logger.LogDebug("SignalEngine: %s confidence=%.2f (%s)", signal.Direction, signal.Confidence, signal.Reason)
	}
	return signal, nil
}
