// File: dataprovider/stats.go
package dataprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// DailyProfit is one point of the dashboard profit chart: the running profit
// total up to and including that day.
type DailyProfit struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Profit float64 `json:"profit"`
}

// DashboardStats aggregates a user's trading performance for the dashboard.
// The store fills the historical fields; the application layers the live
// session fields (balance, state, risk targets, next session) on top before
// the payload goes out.
type DashboardStats struct {
	TotalTrades   int                     `json:"total_trades"`
	Wins          int                     `json:"wins"`
	Losses        int                     `json:"losses"`
	Ties          int                     `json:"ties"`
	WinRate       float64                 `json:"win_rate"` // percent, ties excluded
	TotalProfit   float64                 `json:"total_profit"`
	TodayProfit   float64                 `json:"today_profit"`
	BestStreak    int                     `json:"best_streak"`
	RecentTrades  []utilities.TradeRecord `json:"recent_trades"`
	ProfitHistory []DailyProfit           `json:"profit_history"` // last 7 days, cumulative, oldest first

	Balance           float64   `json:"balance"`
	BotState          string    `json:"bot_state"`
	SessionProfit     float64   `json:"session_profit"`
	TakeProfitTarget  float64   `json:"take_profit_target"`
	StopLossTarget    float64   `json:"stop_loss_target"`
	TakeProfitReached bool      `json:"take_profit_reached"`
	StopLossReached   bool      `json:"stop_loss_reached"`
	NextSession       time.Time `json:"next_session,omitempty"`
}

// DashboardStats computes the user's aggregate stats as of 'now'.
func (s *SQLiteStore) DashboardStats(ctx context.Context, userID int64, now time.Time) (DashboardStats, error) {
	var stats DashboardStats

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN result = 'win' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN result = 'loss' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN result = 'tie' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(profit), 0)
		FROM trade_history WHERE user_id = ?`, userID).
		Scan(&stats.TotalTrades, &stats.Wins, &stats.Losses, &stats.Ties, &stats.TotalProfit)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("aggregate stats: %w", err)
	}
	if decided := stats.Wins + stats.Losses; decided > 0 {
		stats.WinRate = float64(stats.Wins) / float64(decided) * 100.0
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	err = s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(profit), 0) FROM trade_history WHERE user_id = ? AND timestamp >= ?`,
		userID, dayStart.Unix()).Scan(&stats.TodayProfit)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("today profit: %w", err)
	}

	streak, err := s.bestWinStreak(ctx, userID)
	if err != nil {
		return DashboardStats{}, err
	}
	stats.BestStreak = streak

	recent, _, err := s.ListTrades(ctx, userID, TradeFilter{Page: 1, PerPage: 10})
	if err != nil {
		return DashboardStats{}, err
	}
	stats.RecentTrades = recent

	history, err := s.profitHistory(ctx, userID, dayStart)
	if err != nil {
		return DashboardStats{}, err
	}
	stats.ProfitHistory = history

	return stats, nil
}

// bestWinStreak scans results in time order and returns the longest run of
// consecutive wins. Any non-win result, ties included, resets the run.
func (s *SQLiteStore) bestWinStreak(ctx context.Context, userID int64) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT result FROM trade_history WHERE user_id = ? ORDER BY timestamp ASC`, userID)
	if err != nil {
		return 0, fmt.Errorf("query results for streak: %w", err)
	}
	defer rows.Close()

	best, current := 0, 0
	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			return 0, err
		}
		if utilities.TradeResult(result) == utilities.ResultWin {
			current++
			if current > best {
				best = current
			}
		} else {
			current = 0
		}
	}
	return best, rows.Err()
}

// profitHistory returns a running profit total across the 7 days ending on the
// day that starts at dayStart, oldest first. Each entry carries the cumulative
// profit up to and including that day, so the dashboard chart shows growth, not
// isolated daily bars. Days without trades carry the total forward unchanged.
func (s *SQLiteStore) profitHistory(ctx context.Context, userID int64, dayStart time.Time) ([]DailyProfit, error) {
	history := make([]DailyProfit, 0, 7)
	cumulative := 0.0
	for offset := 6; offset >= 0; offset-- {
		from := dayStart.AddDate(0, 0, -offset)
		to := from.AddDate(0, 0, 1)

		var profit float64
		err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(profit), 0) FROM trade_history WHERE user_id = ? AND timestamp >= ? AND timestamp < ?`,
			userID, from.Unix(), to.Unix()).Scan(&profit)
		if err != nil {
			return nil, fmt.Errorf("profit history for %s: %w", from.Format("2006-01-02"), err)
		}
		cumulative += profit
		history = append(history, DailyProfit{Date: from.Format("2006-01-02"), Profit: cumulative})
	}
	return history, nil
}
