package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/dataprovider"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/notification/discord"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/bot"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/broker"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/broker/iqoption"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/mlmodel"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/web"
)

const (
	cleanupInterval = 24 * time.Hour
	tradeRetention  = 90 * 24 * time.Hour
)

// App wires the registry, persistence, broker factory and notification
// channels together and implements web.AppController.
type App struct {
	cfg           *utilities.AppConfig
	logger        *utilities.Logger
	store         *dataprovider.SQLiteStore
	registry      *bot.Registry
	balances      *bot.BalanceCache
	discordClient *discord.Client
	predictor     mlmodel.Predictor
	brokerFactory func(userID int64) (broker.Broker, error)
}

var _ web.AppController = (*App)(nil)

// New assembles the application from configuration. The broker factory may be
// overridden before Run for paper trading.
func New(cfg *utilities.AppConfig, logger *utilities.Logger) (*App, error) {
	store, err := dataprovider.NewSQLiteStore(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var predictor mlmodel.Predictor = mlmodel.Noop{}
	if cfg.Trading.UseMLSignals && cfg.MLService.BaseURL != "" {
		client, err := mlmodel.NewClient(&cfg.MLService, nil, logger)
		if err != nil {
			return nil, fmt.Errorf("ml service client: %w", err)
		}
		predictor = client
	}

	a := &App{
		cfg:           cfg,
		logger:        logger,
		store:         store,
		balances:      bot.NewBalanceCache(bot.DefaultBalanceTTL, logger),
		discordClient: discord.NewClient(cfg.Discord.WebhookURL, logger),
		predictor:     predictor,
	}
	a.brokerFactory = func(userID int64) (broker.Broker, error) {
		httpClient := &http.Client{Timeout: time.Duration(cfg.IQOption.RequestTimeoutSec) * time.Second}
		return iqoption.NewAdapter(&cfg.IQOption, httpClient, logger)
	}
	a.registry = bot.NewRegistry(a.newController)
	return a, nil
}

// SetBrokerFactory replaces the production broker. Must be called before any
// controller is created.
func (a *App) SetBrokerFactory(factory func(userID int64) (broker.Broker, error)) {
	a.brokerFactory = factory
}

func (a *App) newController(userID int64) *bot.Controller {
	brk, err := a.brokerFactory(userID)
	if err != nil {
		// Surface the failure through Start: a controller with a broken broker
		// fails its Connect immediately.
		a.logger.LogError("App: broker setup for user %d failed: %v", userID, err)
		brk = &unavailableBroker{err: err}
	}
	c := bot.NewController(userID, a.cfg, brk, a.store, a.balances, a.predictor, a.discordClient, a.logger)

	// A previously saved per-user config overrides the file defaults.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if saved, found, err := a.store.LoadTradingConfig(ctx, userID); err != nil {
		a.logger.LogError("App: loading saved config for user %d failed: %v", userID, err)
	} else if found {
		if err := c.UpdateTradingConfig(saved); err != nil {
			a.logger.LogWarn("App: saved config for user %d is invalid, using defaults: %v", userID, err)
		}
	}
	return c
}

// Run starts the API server and the database maintenance loop, then blocks
// until the context is cancelled. Active sessions are stopped on the way out.
func (a *App) Run(ctx context.Context) error {
	a.store.StartScheduledCleanup(ctx, cleanupInterval, tradeRetention, a.logger)
	web.StartWebServer(ctx, a, a.cfg.Web)

	a.logger.LogInfo("App: %s %s ready", a.cfg.AppName, a.cfg.Version)
	<-ctx.Done()

	a.logger.LogInfo("App: shutting down, stopping active sessions...")
	a.registry.StopAll()
	if err := a.store.Close(); err != nil {
		a.logger.LogError("App: closing database: %v", err)
	}
	return ctx.Err()
}

// --- web.AppController ---

func (a *App) StartBot(ctx context.Context, userID int64) error {
	return a.registry.Controller(userID).Start(ctx)
}

func (a *App) StopBot(userID int64) {
	if c, ok := a.registry.Lookup(userID); ok {
		c.Stop()
	}
}

func (a *App) BotStatus(userID int64) bot.Status {
	if c, ok := a.registry.Lookup(userID); ok {
		return c.Status()
	}
	return bot.Status{UserID: userID, State: bot.StateIdle}
}

func (a *App) AllStatuses() []bot.Status {
	return a.registry.Statuses()
}

func (a *App) TradeHistory(ctx context.Context, userID int64, filter dataprovider.TradeFilter) ([]utilities.TradeRecord, int, error) {
	return a.store.ListTrades(ctx, userID, filter)
}

// DashboardStats layers the live session state over the stored aggregates so
// one response carries everything the dashboard renders.
func (a *App) DashboardStats(ctx context.Context, userID int64) (dataprovider.DashboardStats, error) {
	now := time.Now()
	stats, err := a.store.DashboardStats(ctx, userID, now)
	if err != nil {
		return dataprovider.DashboardStats{}, err
	}

	status := a.BotStatus(userID)
	stats.BotState = string(status.State)
	stats.SessionProfit = status.SessionProfit
	stats.TakeProfitTarget = status.TakeProfitAmt
	stats.StopLossTarget = status.StopLossAmt
	stats.TakeProfitReached = status.LimitReached && status.TakeProfitAmt > 0 && status.SessionProfit >= status.TakeProfitAmt
	stats.StopLossReached = status.LimitReached && !stats.TakeProfitReached

	if balance, ok := a.balances.Peek(userID); ok {
		stats.Balance = balance
	}

	if cfg, err := a.GetTradingConfig(ctx, userID); err == nil && cfg.OperationMode == utilities.OperationModeAuto {
		if scheduler, err := bot.NewSessionScheduler(cfg); err == nil {
			stats.NextSession = scheduler.NextEligibleStart(now)
		}
	}
	return stats, nil
}

func (a *App) GetTradingConfig(ctx context.Context, userID int64) (utilities.TradingConfig, error) {
	if c, ok := a.registry.Lookup(userID); ok {
		return c.TradingConfig(), nil
	}
	if saved, found, err := a.store.LoadTradingConfig(ctx, userID); err != nil {
		return utilities.TradingConfig{}, err
	} else if found {
		return saved, nil
	}
	return a.cfg.Trading, nil
}

func (a *App) UpdateTradingConfig(ctx context.Context, userID int64, cfg utilities.TradingConfig) error {
	if err := a.registry.Controller(userID).UpdateTradingConfig(cfg); err != nil {
		return err
	}
	return a.store.SaveTradingConfig(ctx, userID, cfg)
}

func (a *App) Logger() *utilities.Logger { return a.logger }

// unavailableBroker reports its construction error on every call.
type unavailableBroker struct {
	err error
}

func (u *unavailableBroker) Connect(ctx context.Context) error {
	return fmt.Errorf("%w: %v", broker.ErrConnectFailed, u.err)
}
func (u *unavailableBroker) Disconnect() error { return nil }
func (u *unavailableBroker) GetBalance(ctx context.Context) (float64, error) {
	return 0, broker.ErrNotConnected
}
func (u *unavailableBroker) GetCandles(ctx context.Context, asset string, timeframeSec, count int) ([]utilities.Candle, error) {
	return nil, broker.ErrNotConnected
}
func (u *unavailableBroker) PlaceOrder(ctx context.Context, req broker.OrderRequest) (string, error) {
	return "", broker.ErrNotConnected
}
func (u *unavailableBroker) GetOrderResult(ctx context.Context, orderID string) (broker.OrderResult, error) {
	return broker.OrderResult{}, broker.ErrNotConnected
}
