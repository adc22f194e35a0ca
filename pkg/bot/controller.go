// File: pkg/bot/controller.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/broker"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/metrics"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/mlmodel"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/strategy"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// ErrAlreadyRunning is returned by Start when the user's session is active.
var ErrAlreadyRunning = errors.New("bot: already running")

// TradeStore persists settled trades. A persistence failure is logged and never
// rolls back in-memory session state.
type TradeStore interface {
	SaveTradeRecord(ctx context.Context, rec utilities.TradeRecord) error
}

// Notifier receives session events. Implementations must not block the loop.
type Notifier interface {
	NotifyTradeSettled(rec utilities.TradeRecord)
	NotifySessionEvent(userID int64, event, detail string)
}

// Controller runs one user's trading session: a state machine around a
// ticker-driven loop that evaluates signals, places orders, awaits settlement
// and enforces session limits.
type Controller struct {
	userID    int64
	appCfg    *utilities.AppConfig
	brk       broker.Broker
	engine    *strategy.Engine
	blender   *strategy.Blender
	predictor mlmodel.Predictor
	store     TradeStore
	notifier  Notifier
	balances  *BalanceCache
	logger    *utilities.Logger
	now       func() time.Time

	pollInterval   time.Duration
	resultInterval time.Duration
	resultTimeout  time.Duration

	mu         sync.Mutex
	state      BotState
	tradingCfg utilities.TradingConfig
	scheduler  *SessionScheduler
	martingale *MartingaleManager
	riskGuard  *RiskGuard
	status     Status
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// NewController builds an idle controller. The predictor and notifier may be
// nil; persistence and the balance cache are required.
func NewController(userID int64, appCfg *utilities.AppConfig, brk broker.Broker, store TradeStore, balances *BalanceCache, predictor mlmodel.Predictor, notifier Notifier, logger *utilities.Logger) *Controller {
	pollInterval := time.Duration(appCfg.Bot.PollIntervalSec) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	resultInterval := time.Duration(appCfg.Bot.ResultPollIntervalMs) * time.Millisecond
	if resultInterval <= 0 {
		resultInterval = 500 * time.Millisecond
	}
	resultTimeout := time.Duration(appCfg.Bot.ResultTimeoutSec) * time.Second
	if resultTimeout <= 0 {
		resultTimeout = 5 * time.Minute
	}
	if predictor == nil {
		predictor = mlmodel.Noop{}
	}

	return &Controller{
		userID:         userID,
		appCfg:         appCfg,
		brk:            brk,
		engine:         strategy.NewEngine(logger),
		blender:        strategy.NewBlender(logger),
		predictor:      predictor,
		store:          store,
		notifier:       notifier,
		balances:       balances,
		logger:         logger,
		now:            time.Now,
		pollInterval:   pollInterval,
		resultInterval: resultInterval,
		resultTimeout:  resultTimeout,
		state:          StateIdle,
		tradingCfg:     appCfg.Trading,
		status:         Status{UserID: userID, State: StateIdle},
	}
}

// UpdateTradingConfig replaces the trading parameters. Rejected while a
// session is active.
func (c *Controller) UpdateTradingConfig(cfg utilities.TradingConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle && c.state != StateError {
		return fmt.Errorf("%w: stop the bot before changing its configuration", ErrAlreadyRunning)
	}
	c.tradingCfg = cfg
	return nil
}

// TradingConfig returns a copy of the active trading parameters.
func (c *Controller) TradingConfig() utilities.TradingConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tradingCfg
}

// Start validates configuration, connects the broker and launches the trading
// loop. It returns ErrAlreadyRunning when a session is active, a ConfigError
// when the trading parameters are invalid, and a broker connect error when the
// session cannot be established. On success the state is Running.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle && c.state != StateError {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	cfg := c.tradingCfg
	if err := cfg.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	scheduler, err := NewSessionScheduler(cfg)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	if err := c.brk.Connect(ctx); err != nil {
		c.failSession(fmt.Errorf("broker connect: %w", err))
		return err
	}

	startBalance, err := c.balances.Get(ctx, c.userID, c.brk)
	if err != nil {
		_ = c.brk.Disconnect()
		c.failSession(fmt.Errorf("initial balance: %w", err))
		return err
	}

	c.mu.Lock()
	if c.state == StateStopping {
		c.setStateLocked(StateIdle)
		c.mu.Unlock()
		_ = c.brk.Disconnect()
		return nil
	}
	c.scheduler = scheduler
	c.martingale = NewMartingaleManager(cfg, c.logger)
	c.riskGuard = NewRiskGuard(startBalance, cfg, c.logger)
	c.stopCh = make(chan struct{})
	c.status = Status{
		UserID:    c.userID,
		Asset:     cfg.Asset,
		StartedAt: c.now(),
	}
	c.setStateLocked(StateRunning)
	stopCh := c.stopCh
	c.mu.Unlock()

	metrics.BotsRunning.Inc()
	c.logger.LogInfo("Bot %d: session started, asset=%s mode=%s balance=%.2f", c.userID, cfg.Asset, cfg.OperationMode, startBalance)
	c.notifyEvent("session_started", fmt.Sprintf("asset=%s balance=%.2f", cfg.Asset, startBalance))

	c.wg.Add(1)
	go c.runLoop(stopCh)
	return nil
}

// Stop requests a cooperative shutdown and returns immediately. A trade in
// flight settles before the loop exits. Stop on an idle session is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateRunning, StatePaused:
		c.setStateLocked(StateStopping)
		close(c.stopCh)
	case StateConnecting:
		// No loop yet. Start observes the Stopping state once the broker
		// handshake returns and unwinds without launching the loop.
		c.setStateLocked(StateStopping)
	}
}

// Status returns a snapshot of the session without blocking on the loop.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := c.status
	status.State = c.state
	if c.martingale != nil {
		status.MartingaleLevel = c.martingale.Level()
	}
	if c.riskGuard != nil {
		status.SessionProfit = c.riskGuard.SessionProfit()
		status.TakeProfitAmt, status.StopLossAmt = c.riskGuard.Targets()
		status.LimitReached = c.riskGuard.Tripped()
	}
	if c.scheduler != nil {
		now := c.now()
		status.SessionType = c.scheduler.Session(now)
		status.NextSession = c.scheduler.NextEligibleStart(now)
	}
	return status
}

func (c *Controller) setStateLocked(state BotState) {
	c.state = state
}

func (c *Controller) failSession(err error) {
	c.logger.LogError("Bot %d: session failed: %v", c.userID, err)
	c.mu.Lock()
	c.setStateLocked(StateError)
	c.status.LastError = err.Error()
	c.mu.Unlock()
	c.notifyEvent("session_error", err.Error())
}

func (c *Controller) stopping(stopCh chan struct{}) bool {
	select {
	case <-stopCh:
		return true
	default:
		return false
	}
}

func (c *Controller) runLoop(stopCh chan struct{}) {
	defer c.wg.Done()
	defer metrics.BotsRunning.Dec()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			c.finishSession(StateIdle, "")
			return
		case <-ticker.C:
		}

		done, err := c.iterate(stopCh)
		if err != nil {
			c.failSession(err)
			_ = c.brk.Disconnect()
			return
		}
		if done {
			return
		}
	}
}

// finishSession transitions out of the loop and disconnects the broker.
func (c *Controller) finishSession(state BotState, detail string) {
	_ = c.brk.Disconnect()
	c.mu.Lock()
	c.setStateLocked(state)
	c.status.StopReason = detail
	c.mu.Unlock()
	c.logger.LogInfo("Bot %d: session finished (%s)", c.userID, state)
	c.notifyEvent("session_stopped", detail)
}

// iterate performs one trading cycle. It returns done=true when the session
// ended normally (stop requested or a session limit fired) and an error when
// the broker failed mid-loop.
func (c *Controller) iterate(stopCh chan struct{}) (bool, error) {
	c.mu.Lock()
	cfg := c.tradingCfg
	scheduler := c.scheduler
	c.mu.Unlock()

	now := c.now()
	sessionType := scheduler.Session(now)
	if sessionType == "" {
		c.mu.Lock()
		if c.state == StateRunning {
			c.setStateLocked(StatePaused)
			c.logger.LogInfo("Bot %d: outside trading window, paused until %s", c.userID, scheduler.NextEligibleStart(now).Format("15:04"))
		}
		c.mu.Unlock()
		return false, nil
	}
	c.mu.Lock()
	if c.state == StatePaused {
		c.setStateLocked(StateRunning)
		c.logger.LogInfo("Bot %d: trading window open, resuming", c.userID)
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.resultTimeout)
	defer cancel()

	candles, err := c.brk.GetCandles(ctx, cfg.Asset, c.appCfg.Bot.CandleTimeframeSec, c.appCfg.Bot.CandleCount)
	if err != nil {
		return false, fmt.Errorf("get candles: %w", err)
	}

	signal, err := c.engine.Evaluate(candles, cfg)
	if err != nil {
		if errors.Is(err, strategy.ErrInsufficientData) {
			c.logger.LogDebug("Bot %d: %v", c.userID, err)
			return false, nil
		}
		return false, fmt.Errorf("evaluate signal: %w", err)
	}
	metrics.SignalsEvaluated.WithLabelValues(string(signal.Direction)).Inc()

	var prediction *strategy.MLPrediction
	if cfg.UseMLSignals {
		prediction, err = c.predictor.Predict(ctx, mlmodel.FeatureVector{
			Asset:      cfg.Asset,
			Candles:    candles,
			Indicators: signal.Indicators,
		})
		if err != nil {
			// Predictions are advisory. Trade on the technical signal alone.
			c.logger.LogWarn("Bot %d: ML prediction failed: %v", c.userID, err)
			prediction = nil
		}
	}
	blended := c.blender.Blend(signal, prediction, cfg)

	c.mu.Lock()
	c.status.LastSignal = &blended
	c.mu.Unlock()

	if blended.Direction == utilities.DirectionHold {
		return false, nil
	}

	stake, err := c.computeStake(ctx, cfg)
	if err != nil {
		return false, fmt.Errorf("compute stake: %w", err)
	}

	record, err := c.executeTrade(ctx, cfg, blended, prediction, stake, sessionType)
	if err != nil {
		return false, err
	}

	return c.settle(record, stopCh)
}

func (c *Controller) computeStake(ctx context.Context, cfg utilities.TradingConfig) (float64, error) {
	base := cfg.TradeAmount
	if cfg.UseBalancePercentage {
		balance, err := c.balances.Get(ctx, c.userID, c.brk)
		if err != nil {
			return 0, err
		}
		base = balance * cfg.BalancePercentage / 100.0
	}
	return c.martingale.NextStake(base), nil
}

// executeTrade places the order and polls for settlement. A stop request does
// not interrupt the wait: the option is already on the books.
func (c *Controller) executeTrade(ctx context.Context, cfg utilities.TradingConfig, signal strategy.Signal, prediction *strategy.MLPrediction, stake float64, sessionType utilities.SessionType) (utilities.TradeRecord, error) {
	req := broker.OrderRequest{
		Asset:      cfg.Asset,
		Direction:  signal.Direction,
		Amount:     stake,
		Expiration: cfg.Expiration(),
	}
	orderID, err := c.brk.PlaceOrder(ctx, req)
	if err != nil {
		return utilities.TradeRecord{}, fmt.Errorf("place order: %w", err)
	}
	metrics.TradesPlaced.WithLabelValues(string(signal.Direction)).Inc()
	c.logger.LogInfo("Bot %d: placed %s %.2f on %s (order %s, confidence %.2f, level %d)",
		c.userID, signal.Direction, stake, cfg.Asset, orderID, signal.Confidence, c.martingale.Level())

	result, err := c.awaitResult(ctx, orderID)
	if err != nil {
		return utilities.TradeRecord{}, fmt.Errorf("await result for order %s: %w", orderID, err)
	}

	record := utilities.TradeRecord{
		ID:               uuid.NewString(),
		UserID:           c.userID,
		Timestamp:        c.now(),
		Asset:            cfg.Asset,
		Direction:        signal.Direction,
		Amount:           stake,
		Expiration:       req.Expiration,
		EntryPrice:       result.EntryPrice,
		ExitPrice:        result.ExitPrice,
		Result:           result.Result,
		Profit:           result.Profit,
		MartingaleLevel:  c.martingale.Level(),
		SignalConfidence: signal.Confidence,
		Indicators:       signal.Indicators,
		Patterns:         signal.Patterns,
		SessionType:      sessionType,
	}
	if prediction != nil {
		record.MLPrediction = prediction.Direction
		record.MLConfidence = prediction.Confidence
	}
	return record, nil
}

func (c *Controller) awaitResult(ctx context.Context, orderID string) (broker.OrderResult, error) {
	ticker := time.NewTicker(c.resultInterval)
	defer ticker.Stop()
	for {
		result, err := c.brk.GetOrderResult(ctx, orderID)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, broker.ErrResultPending) {
			return broker.OrderResult{}, err
		}
		select {
		case <-ctx.Done():
			return broker.OrderResult{}, fmt.Errorf("result wait: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// settle folds a settled trade into session state. It returns done=true when a
// session limit ends the session.
func (c *Controller) settle(record utilities.TradeRecord, stopCh chan struct{}) (bool, error) {
	metrics.TradesSettled.WithLabelValues(string(record.Result)).Inc()
	c.balances.Invalidate(c.userID)

	userLabel := strconv.FormatInt(c.userID, 10)
	c.mu.Lock()
	c.status.TradesPlaced++
	switch record.Result {
	case utilities.ResultWin:
		c.status.Wins++
	case utilities.ResultLoss:
		c.status.Losses++
	case utilities.ResultTie:
		c.status.Ties++
	}
	c.status.LastTrade = &record
	c.mu.Unlock()

	// Persistence failures must not roll back what already happened in memory.
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := c.store.SaveTradeRecord(saveCtx, record); err != nil {
		c.logger.LogError("Bot %d: failed to persist trade %s: %v", c.userID, record.ID, err)
	}
	cancel()

	if c.notifier != nil {
		c.notifier.NotifyTradeSettled(record)
	}
	c.logger.LogInfo("Bot %d: trade %s settled %s profit=%.2f", c.userID, record.ID, record.Result, record.Profit)

	martingaleErr := c.martingale.RecordResult(record.Result)
	metrics.MartingaleLevel.WithLabelValues(userLabel).Set(float64(c.martingale.Level()))

	riskErr := c.riskGuard.Record(record.Profit)
	metrics.SessionProfit.WithLabelValues(userLabel).Set(c.riskGuard.SessionProfit())

	switch {
	case errors.Is(riskErr, ErrTakeProfitReached):
		c.notifyEvent("take_profit", fmt.Sprintf("session profit %.2f", c.riskGuard.SessionProfit()))
		c.finishSession(StateIdle, riskErr.Error())
		return true, nil
	case errors.Is(riskErr, ErrStopLossReached):
		c.notifyEvent("stop_loss", fmt.Sprintf("session profit %.2f", c.riskGuard.SessionProfit()))
		c.finishSession(StateIdle, riskErr.Error())
		return true, nil
	case errors.Is(martingaleErr, ErrMartingaleExhausted):
		c.notifyEvent("martingale_exhausted", martingaleErr.Error())
		c.finishSession(StateIdle, martingaleErr.Error())
		return true, nil
	}

	if c.stopping(stopCh) {
		c.finishSession(StateIdle, "")
		return true, nil
	}
	return false, nil
}

func (c *Controller) notifyEvent(event, detail string) {
	if c.notifier != nil {
		c.notifier.NotifySessionEvent(c.userID, event, detail)
	}
}
