// File: pkg/bot/riskguard.go
package bot

import (
	"errors"
	"sync"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

var (
	// ErrTakeProfitReached is returned exactly once, when cumulative session
	// profit first crosses the take-profit target.
	ErrTakeProfitReached = errors.New("bot: take profit reached")

	// ErrStopLossReached is returned exactly once, when cumulative session loss
	// first crosses the stop-loss limit.
	ErrStopLossReached = errors.New("bot: stop loss reached")
)

// RiskGuard enforces session-level take-profit and stop-loss limits. Targets
// are fixed in currency terms from the balance observed at session start, so a
// growing balance does not move the goalposts mid-session.
type RiskGuard struct {
	mu            sync.Mutex
	takeProfitAmt float64
	stopLossAmt   float64
	sessionProfit float64
	tripped       bool
	logger        *utilities.Logger
}

// NewRiskGuard fixes the targets from the session-start balance and the
// configured percentages. A zero percentage disables that side of the guard.
func NewRiskGuard(startBalance float64, cfg utilities.TradingConfig, logger *utilities.Logger) *RiskGuard {
	return &RiskGuard{
		takeProfitAmt: startBalance * cfg.TakeProfitPercent / 100.0,
		stopLossAmt:   startBalance * cfg.StopLossPercent / 100.0,
		logger:        logger,
	}
}

// Record folds a settled trade's profit into the session total. It returns
// ErrTakeProfitReached or ErrStopLossReached on the first crossing only;
// subsequent calls return nil.
func (g *RiskGuard) Record(profit float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sessionProfit += profit
	if g.tripped {
		return nil
	}

	if g.takeProfitAmt > 0 && g.sessionProfit >= g.takeProfitAmt {
		g.tripped = true
		if g.logger != nil {
			g.logger.LogInfo("RiskGuard: session profit %.2f crossed take-profit target %.2f", g.sessionProfit, g.takeProfitAmt)
		}
		return ErrTakeProfitReached
	}
	if g.stopLossAmt > 0 && g.sessionProfit <= -g.stopLossAmt {
		g.tripped = true
		if g.logger != nil {
			g.logger.LogWarn("RiskGuard: session loss %.2f crossed stop-loss limit %.2f", -g.sessionProfit, g.stopLossAmt)
		}
		return ErrStopLossReached
	}
	return nil
}

// SessionProfit returns the cumulative profit recorded this session.
func (g *RiskGuard) SessionProfit() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessionProfit
}

// Targets returns the fixed currency targets. Zero means that side is
// disabled.
func (g *RiskGuard) Targets() (takeProfit, stopLoss float64) {
	return g.takeProfitAmt, g.stopLossAmt
}

// Tripped reports whether either limit has fired.
func (g *RiskGuard) Tripped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tripped
}
