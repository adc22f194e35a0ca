package utilities

import (
	"fmt"
	"time"
)

// AppConfig is the root configuration structure, holding all other config sections.
type AppConfig struct {
	AppName     string          `mapstructure:"app_name"`
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment"`
	Bot         BotConfig       `mapstructure:"bot"`
	DB          DatabaseConfig  `mapstructure:"database"`
	Discord     DiscordConfig   `mapstructure:"discord"`
	IQOption    IQOptionConfig  `mapstructure:"iqoption"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	MLService   MLServiceConfig `mapstructure:"ml_service"`
	Trading     TradingConfig   `mapstructure:"trading"`
	Web         WebConfig       `mapstructure:"web"`
}

// BotConfig holds settings for the polling loop itself.
type BotConfig struct {
	PollIntervalSec      int `mapstructure:"poll_interval_sec"`
	CandleCount          int `mapstructure:"candle_count"`
	CandleTimeframeSec   int `mapstructure:"candle_timeframe_sec"`
	ResultPollIntervalMs int `mapstructure:"result_poll_interval_ms"`
	ResultTimeoutSec     int `mapstructure:"result_timeout_sec"`
}

// DatabaseConfig holds settings for database connections.
type DatabaseConfig struct {
	DBPath string `mapstructure:"database_path"`
}

// DiscordConfig holds settings for sending notifications via Discord.
type DiscordConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// IQOptionConfig holds all settings for the broker integration.
type IQOptionConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	Email             string  `mapstructure:"email"`
	Password          string  `mapstructure:"password"`
	AccountType       string  `mapstructure:"account_type"` // PRACTICE or REAL
	RequestTimeoutSec int     `mapstructure:"request_timeout_sec"`
	MaxRetries        int     `mapstructure:"max_retries"`
	RetryDelaySec     int     `mapstructure:"retry_delay_sec"`
	RateLimitPerSec   float64 `mapstructure:"rate_limit_per_sec"`
	RateLimitBurst    int     `mapstructure:"rate_limit_burst"`
}

// LoggingConfig holds settings related to logging.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// MLServiceConfig holds settings for the external prediction service.
type MLServiceConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	RequestTimeoutSec int     `mapstructure:"request_timeout_sec"`
	MaxRetries        int     `mapstructure:"max_retries"`
	RetryDelaySec     int     `mapstructure:"retry_delay_sec"`
	RateLimitPerSec   float64 `mapstructure:"rate_limit_per_sec"`
	RateLimitBurst    int     `mapstructure:"rate_limit_burst"`
}

// WebConfig holds settings for the control/status API server.
type WebConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// IndicatorsConfig holds parameters for the technical indicators.
type IndicatorsConfig struct {
	RSIPeriod     int     `mapstructure:"rsi_period" json:"rsi_period"`
	RSIOversold   float64 `mapstructure:"rsi_oversold" json:"rsi_oversold"`
	RSIOverbought float64 `mapstructure:"rsi_overbought" json:"rsi_overbought"`
	MACDFast      int     `mapstructure:"macd_fast" json:"macd_fast"`
	MACDSlow      int     `mapstructure:"macd_slow" json:"macd_slow"`
	MACDSignal    int     `mapstructure:"macd_signal" json:"macd_signal"`
	MAShortPeriod int     `mapstructure:"ma_short_period" json:"ma_short_period"`
	MALongPeriod  int     `mapstructure:"ma_long_period" json:"ma_long_period"`
	AroonPeriod   int     `mapstructure:"aroon_period" json:"aroon_period"`
}

// PatternsConfig enables or disables the candlestick pattern detectors.
type PatternsConfig struct {
	EnableEngulfing    bool `mapstructure:"enable_engulfing" json:"enable_engulfing"`
	EnableHammer       bool `mapstructure:"enable_hammer" json:"enable_hammer"`
	EnableShootingStar bool `mapstructure:"enable_shooting_star" json:"enable_shooting_star"`
	EnableDoji         bool `mapstructure:"enable_doji" json:"enable_doji"`
}

// Operation modes for the session scheduler.
const (
	OperationModeAuto   = "auto"
	OperationModeManual = "manual"
)

// TradingConfig holds the per-user trading parameters.
type TradingConfig struct {
	Asset                string  `mapstructure:"asset" json:"asset"`
	TradeAmount          float64 `mapstructure:"trade_amount" json:"trade_amount"`
	UseBalancePercentage bool    `mapstructure:"use_balance_percentage" json:"use_balance_percentage"`
	BalancePercentage    float64 `mapstructure:"balance_percentage" json:"balance_percentage"`
	ExpirationSec        int     `mapstructure:"expiration_sec" json:"expiration_sec"`

	TakeProfitPercent float64 `mapstructure:"take_profit_percent" json:"take_profit_percent"`
	StopLossPercent   float64 `mapstructure:"stop_loss_percent" json:"stop_loss_percent"`

	MartingaleEnabled    bool    `mapstructure:"martingale_enabled" json:"martingale_enabled"`
	MartingaleMultiplier float64 `mapstructure:"martingale_multiplier" json:"martingale_multiplier"`
	MaxMartingaleLevels  int     `mapstructure:"max_martingale_levels" json:"max_martingale_levels"`

	MorningStart   string `mapstructure:"morning_start" json:"morning_start"`
	MorningEnd     string `mapstructure:"morning_end" json:"morning_end"`
	AfternoonStart string `mapstructure:"afternoon_start" json:"afternoon_start"`
	AfternoonEnd   string `mapstructure:"afternoon_end" json:"afternoon_end"`
	OperationMode  string `mapstructure:"operation_mode" json:"operation_mode"` // "auto" or "manual"

	Indicators IndicatorsConfig `mapstructure:"indicators" json:"indicators"`
	Patterns   PatternsConfig   `mapstructure:"patterns" json:"patterns"`

	UseMLSignals          bool    `mapstructure:"use_ml_signals" json:"use_ml_signals"`
	MLConfidenceThreshold float64 `mapstructure:"ml_confidence_threshold" json:"ml_confidence_threshold"`
}

// ConfigError reports an invalid trading configuration. It fails a session at start,
// before the bot ever reaches Running.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid trading config: %s: %s", e.Field, e.Reason)
}

// Expiration returns the configured option expiration as a duration.
func (c TradingConfig) Expiration() time.Duration {
	if c.ExpirationSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.ExpirationSec) * time.Second
}

// Validate checks the trading configuration invariants.
func (c TradingConfig) Validate() error {
	if c.Asset == "" {
		return &ConfigError{Field: "asset", Reason: "must not be empty"}
	}
	if c.TradeAmount <= 0 && !c.UseBalancePercentage {
		return &ConfigError{Field: "trade_amount", Reason: "must be positive"}
	}
	if c.UseBalancePercentage && (c.BalancePercentage <= 0 || c.BalancePercentage > 100) {
		return &ConfigError{Field: "balance_percentage", Reason: "must be in (0,100]"}
	}
	if c.TakeProfitPercent < 0 || c.TakeProfitPercent > 100 {
		return &ConfigError{Field: "take_profit_percent", Reason: "must be in [0,100]"}
	}
	if c.StopLossPercent < 0 || c.StopLossPercent > 100 {
		return &ConfigError{Field: "stop_loss_percent", Reason: "must be in [0,100]"}
	}
	if c.MartingaleEnabled {
		if c.MartingaleMultiplier <= 1 {
			return &ConfigError{Field: "martingale_multiplier", Reason: "must be greater than 1 when martingale is enabled"}
		}
		if c.MaxMartingaleLevels < 1 {
			return &ConfigError{Field: "max_martingale_levels", Reason: "must be at least 1 when martingale is enabled"}
		}
	}
	if c.OperationMode != OperationModeAuto && c.OperationMode != OperationModeManual {
		return &ConfigError{Field: "operation_mode", Reason: "must be auto or manual"}
	}
	windows := []struct {
		startField, endField string
		start, end           string
	}{
		{"morning_start", "morning_end", c.MorningStart, c.MorningEnd},
		{"afternoon_start", "afternoon_end", c.AfternoonStart, c.AfternoonEnd},
	}
	for _, w := range windows {
		start, err := ParseClock(w.start)
		if err != nil {
			return &ConfigError{Field: w.startField, Reason: err.Error()}
		}
		end, err := ParseClock(w.end)
		if err != nil {
			return &ConfigError{Field: w.endField, Reason: err.Error()}
		}
		if end.Minutes() <= start.Minutes() {
			return &ConfigError{Field: w.endField, Reason: fmt.Sprintf("window end %s must be after start %s", end, start)}
		}
	}
	ind := c.Indicators
	for _, p := range []struct {
		name   string
		period int
	}{
		{"indicators.rsi_period", ind.RSIPeriod},
		{"indicators.macd_fast", ind.MACDFast},
		{"indicators.macd_slow", ind.MACDSlow},
		{"indicators.macd_signal", ind.MACDSignal},
		{"indicators.ma_short_period", ind.MAShortPeriod},
		{"indicators.ma_long_period", ind.MALongPeriod},
		{"indicators.aroon_period", ind.AroonPeriod},
	} {
		if p.period <= 0 {
			return &ConfigError{Field: p.name, Reason: "period must be positive"}
		}
	}
	if ind.MACDFast >= ind.MACDSlow {
		return &ConfigError{Field: "indicators.macd_fast", Reason: "fast period must be below slow period"}
	}
	if c.UseMLSignals && (c.MLConfidenceThreshold < 0 || c.MLConfidenceThreshold > 1) {
		return &ConfigError{Field: "ml_confidence_threshold", Reason: "must be in [0,1]"}
	}
	return nil
}

// DefaultTradingConfig mirrors the defaults a fresh user account starts with.
func DefaultTradingConfig() TradingConfig {
	return TradingConfig{
		Asset:                 "EURUSD",
		TradeAmount:           10.0,
		UseBalancePercentage:  true,
		BalancePercentage:     2.0,
		ExpirationSec:         60,
		TakeProfitPercent:     70.0,
		StopLossPercent:       30.0,
		MartingaleEnabled:     true,
		MartingaleMultiplier:  2.2,
		MaxMartingaleLevels:   3,
		MorningStart:          "10:00",
		MorningEnd:            "12:00",
		AfternoonStart:        "14:00",
		AfternoonEnd:          "17:00",
		OperationMode:         OperationModeManual,
		UseMLSignals:          true,
		MLConfidenceThreshold: 0.7,
		Indicators: IndicatorsConfig{
			RSIPeriod:     14,
			RSIOversold:   30.0,
			RSIOverbought: 70.0,
			MACDFast:      12,
			MACDSlow:      26,
			MACDSignal:    9,
			MAShortPeriod: 20,
			MALongPeriod:  50,
			AroonPeriod:   14,
		},
		Patterns: PatternsConfig{
			EnableEngulfing:    true,
			EnableHammer:       true,
			EnableShootingStar: true,
			EnableDoji:         true,
		},
	}
}
