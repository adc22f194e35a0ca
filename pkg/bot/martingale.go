// File: pkg/bot/martingale.go
package bot

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// ErrMartingaleExhausted is returned when a loss would push the recovery level
// beyond the configured maximum. The caller must reset before trading again.
var ErrMartingaleExhausted = errors.New("bot: martingale levels exhausted")

// MartingaleManager tracks the loss-recovery escalation level and sizes the
// next stake as base * multiplier^level. Wins reset the level, losses escalate
// it, ties leave it unchanged.
type MartingaleManager struct {
	mu         sync.Mutex
	enabled    bool
	multiplier float64
	maxLevels  int
	level      int
	logger     *utilities.Logger
}

func NewMartingaleManager(cfg utilities.TradingConfig, logger *utilities.Logger) *MartingaleManager {
	return &MartingaleManager{
		enabled:    cfg.MartingaleEnabled,
		multiplier: cfg.MartingaleMultiplier,
		maxLevels:  cfg.MaxMartingaleLevels,
		logger:     logger,
	}
}

// Level returns the current escalation level, zero-based.
func (m *MartingaleManager) Level() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// NextStake computes the stake for the next trade from the base amount.
func (m *MartingaleManager) NextStake(baseAmount float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled || m.level == 0 {
		return baseAmount
	}
	return baseAmount * math.Pow(m.multiplier, float64(m.level))
}

// RecordResult advances the level based on a settled trade. A loss beyond the
// configured maximum returns ErrMartingaleExhausted and resets the level.
func (m *MartingaleManager) RecordResult(result utilities.TradeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled {
		return nil
	}

	switch result {
	case utilities.ResultWin:
		if m.level > 0 && m.logger != nil {
			m.logger.LogInfo("Martingale: win at level %d, resetting", m.level)
		}
		m.level = 0
	case utilities.ResultLoss:
		if m.level+1 > m.maxLevels {
			m.level = 0
			return fmt.Errorf("%w: max %d levels", ErrMartingaleExhausted, m.maxLevels)
		}
		m.level++
		if m.logger != nil {
			m.logger.LogWarn("Martingale: loss, escalating to level %d of %d", m.level, m.maxLevels)
		}
	case utilities.ResultTie:
		// A tie returns the stake; the recovery sequence is neither won nor lost.
	}
	return nil
}

// Reset clears the escalation level.
func (m *MartingaleManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = 0
}
