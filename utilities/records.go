package utilities

import "time"

// Direction is a binary-option trade direction.
type Direction string

const (
	DirectionCall Direction = "call"
	DirectionPut  Direction = "put"
	DirectionHold Direction = "hold"
)

// TradeResult is the broker-reported outcome of a resolved option.
type TradeResult string

const (
	ResultWin     TradeResult = "win"
	ResultLoss    TradeResult = "loss"
	ResultTie     TradeResult = "tie"
	ResultPending TradeResult = "pending"
)

// SessionType identifies which trading window a trade was placed in.
type SessionType string

const (
	SessionMorning   SessionType = "morning"
	SessionAfternoon SessionType = "afternoon"
	SessionManual    SessionType = "manual"
)

// PatternKind is a closed set of candlestick patterns the engine can detect.
type PatternKind string

const (
	PatternBullishEngulfing PatternKind = "bullish_engulfing"
	PatternBearishEngulfing PatternKind = "bearish_engulfing"
	PatternHammer           PatternKind = "hammer"
	PatternShootingStar     PatternKind = "shooting_star"
	PatternDoji             PatternKind = "doji"
)

// Candle represents a single Open, High, Low, Close, Volume data point.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// IndicatorSnapshot captures the indicator values that backed a trading decision.
type IndicatorSnapshot struct {
	RSI           float64 `json:"rsi"`
	MACD          float64 `json:"macd"`
	MACDSignal    float64 `json:"macd_signal"`
	MACDHistogram float64 `json:"macd_histogram"`
	MAShort       float64 `json:"ma_short"`
	MALong        float64 `json:"ma_long"`
	AroonUp       float64 `json:"aroon_up"`
	AroonDown     float64 `json:"aroon_down"`
}

// TradeRecord is one placed trade. It is created when the order is accepted by the
// broker and mutated exactly once when the outcome resolves; it is never deleted.
type TradeRecord struct {
	ID               string            `json:"id"`
	UserID           int64             `json:"user_id"`
	Timestamp        time.Time         `json:"timestamp"`
	Asset            string            `json:"asset"`
	Direction        Direction         `json:"direction"`
	Amount           float64           `json:"amount"`
	Expiration       time.Duration     `json:"expiration"`
	EntryPrice       float64           `json:"entry_price"`
	ExitPrice        float64           `json:"exit_price"`
	Result           TradeResult       `json:"result"`
	Profit           float64           `json:"profit"`
	MartingaleLevel  int               `json:"martingale_level"`
	SignalConfidence float64           `json:"signal_confidence"`
	Indicators       IndicatorSnapshot `json:"indicators"`
	Patterns         []PatternKind     `json:"patterns"`
	MLPrediction     Direction         `json:"ml_prediction"`
	MLConfidence     float64           `json:"ml_confidence"`
	SessionType      SessionType       `json:"session_type"`
}
