package web

import (
	"context"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/dataprovider"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/bot"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// AppController defines the interface the web package needs to interact with
// the main application's state.
type AppController interface {
	StartBot(ctx context.Context, userID int64) error
	StopBot(userID int64)
	BotStatus(userID int64) bot.Status
	AllStatuses() []bot.Status

	TradeHistory(ctx context.Context, userID int64, filter dataprovider.TradeFilter) ([]utilities.TradeRecord, int, error)
	DashboardStats(ctx context.Context, userID int64) (dataprovider.DashboardStats, error)

	GetTradingConfig(ctx context.Context, userID int64) (utilities.TradingConfig, error)
	UpdateTradingConfig(ctx context.Context, userID int64, cfg utilities.TradingConfig) error

	Logger() *utilities.Logger
}
