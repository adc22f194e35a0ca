// File: pkg/bot/status.go
package bot

import (
	"time"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/strategy"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// BotState is the lifecycle state of one user's trading session.
type BotState string

const (
	StateIdle       BotState = "idle"
	StateConnecting BotState = "connecting"
	StateRunning    BotState = "running"
	StatePaused     BotState = "paused"
	StateStopping   BotState = "stopping"
	StateError      BotState = "error"
)

// Status is a point-in-time snapshot of a session. Reading it never blocks on
// the trading loop.
type Status struct {
	UserID          int64                  `json:"user_id"`
	State           BotState               `json:"state"`
	Asset           string                 `json:"asset"`
	SessionType     utilities.SessionType  `json:"session_type,omitempty"`
	SessionProfit   float64                `json:"session_profit"`
	TakeProfitAmt   float64                `json:"take_profit_amount"`
	StopLossAmt     float64                `json:"stop_loss_amount"`
	LimitReached    bool                   `json:"limit_reached"`
	MartingaleLevel int                    `json:"martingale_level"`
	TradesPlaced    int                    `json:"trades_placed"`
	Wins            int                    `json:"wins"`
	Losses          int                    `json:"losses"`
	Ties            int                    `json:"ties"`
	LastSignal      *strategy.Signal       `json:"last_signal,omitempty"`
	LastTrade       *utilities.TradeRecord `json:"last_trade,omitempty"`
	StartedAt       time.Time              `json:"started_at,omitempty"`
	NextSession     time.Time              `json:"next_session,omitempty"`
	StopReason      string                 `json:"stop_reason,omitempty"`
	LastError       string                 `json:"last_error,omitempty"`
}
