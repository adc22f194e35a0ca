// File: dataprovider/db.go
package dataprovider

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// SQLiteStore persists trade history and per-user trading configurations.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(cfg utilities.DatabaseConfig) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, err
	}
	schema := `
	CREATE TABLE IF NOT EXISTS trade_history (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		asset TEXT NOT NULL,
		direction TEXT NOT NULL,
		amount REAL NOT NULL,
		expiration_sec INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		result TEXT NOT NULL,
		profit REAL NOT NULL,
		martingale_level INTEGER NOT NULL,
		signal_confidence REAL NOT NULL,
		indicators TEXT NOT NULL,
		patterns TEXT NOT NULL,
		ml_prediction TEXT NOT NULL,
		ml_confidence REAL NOT NULL,
		session_type TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trade_user_timestamp ON trade_history (user_id, timestamp);

	CREATE TABLE IF NOT EXISTS trading_configs (
		user_id INTEGER PRIMARY KEY,
		config TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Trade History ---

func (s *SQLiteStore) SaveTradeRecord(ctx context.Context, rec utilities.TradeRecord) error {
	indicators, err := json.Marshal(rec.Indicators)
	if err != nil {
		return fmt.Errorf("marshal indicators: %w", err)
	}
	patterns, err := json.Marshal(rec.Patterns)
	if err != nil {
		return fmt.Errorf("marshal patterns: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO trade_history
		(id, user_id, timestamp, asset, direction, amount, expiration_sec, entry_price, exit_price, result, profit, martingale_level, signal_confidence, indicators, patterns, ml_prediction, ml_confidence, session_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Timestamp.Unix(), rec.Asset, string(rec.Direction), rec.Amount,
		int(rec.Expiration.Seconds()), rec.EntryPrice, rec.ExitPrice, string(rec.Result), rec.Profit,
		rec.MartingaleLevel, rec.SignalConfidence, string(indicators), string(patterns),
		string(rec.MLPrediction), rec.MLConfidence, string(rec.SessionType))
	return err
}

// TradeFilter bounds and pages a trade history query. Zero time bounds are
// open-ended; Page is 1-based.
type TradeFilter struct {
	From    time.Time
	To      time.Time
	Page    int
	PerPage int
}

// ListTrades returns one page of the user's trades, newest first, plus the
// total row count for the filter.
func (s *SQLiteStore) ListTrades(ctx context.Context, userID int64, filter TradeFilter) ([]utilities.TradeRecord, int, error) {
	where := "WHERE user_id = ?"
	args := []interface{}{userID}
	if !filter.From.IsZero() {
		where += " AND timestamp >= ?"
		args = append(args, filter.From.Unix())
	}
	if !filter.To.IsZero() {
		where += " AND timestamp <= ?"
		args = append(args, filter.To.Unix())
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trade_history "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count trades: %w", err)
	}

	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.PerPage
	args = append(args, filter.PerPage, offset)

	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, timestamp, asset, direction, amount, expiration_sec, entry_price, exit_price, result, profit, martingale_level, signal_confidence, indicators, patterns, ml_prediction, ml_confidence, session_type
		FROM trade_history `+where+` ORDER BY timestamp DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []utilities.TradeRecord
	for rows.Next() {
		rec, err := scanTradeRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		trades = append(trades, rec)
	}
	return trades, total, rows.Err()
}

func scanTradeRecord(rows *sql.Rows) (utilities.TradeRecord, error) {
	var rec utilities.TradeRecord
	var ts int64
	var expirationSec int
	var direction, result, indicators, patterns, mlPrediction, sessionType string
	if err := rows.Scan(&rec.ID, &rec.UserID, &ts, &rec.Asset, &direction, &rec.Amount, &expirationSec,
		&rec.EntryPrice, &rec.ExitPrice, &result, &rec.Profit, &rec.MartingaleLevel, &rec.SignalConfidence,
		&indicators, &patterns, &mlPrediction, &rec.MLConfidence, &sessionType); err != nil {
		return utilities.TradeRecord{}, fmt.Errorf("scan trade row: %w", err)
	}
	rec.Timestamp = time.Unix(ts, 0).UTC()
	rec.Expiration = time.Duration(expirationSec) * time.Second
	rec.Direction = utilities.Direction(direction)
	rec.Result = utilities.TradeResult(result)
	rec.MLPrediction = utilities.Direction(mlPrediction)
	rec.SessionType = utilities.SessionType(sessionType)
	if err := json.Unmarshal([]byte(indicators), &rec.Indicators); err != nil {
		return utilities.TradeRecord{}, fmt.Errorf("unmarshal indicators for trade %s: %w", rec.ID, err)
	}
	if patterns != "" && patterns != "null" {
		if err := json.Unmarshal([]byte(patterns), &rec.Patterns); err != nil {
			return utilities.TradeRecord{}, fmt.Errorf("unmarshal patterns for trade %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// --- Trading Configs ---

// LoadTradingConfig returns the user's saved configuration. found reports
// whether one exists; callers fall back to defaults when it does not.
func (s *SQLiteStore) LoadTradingConfig(ctx context.Context, userID int64) (utilities.TradingConfig, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT config FROM trading_configs WHERE user_id = ?`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return utilities.TradingConfig{}, false, nil
	}
	if err != nil {
		return utilities.TradingConfig{}, false, fmt.Errorf("load trading config: %w", err)
	}
	var cfg utilities.TradingConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return utilities.TradingConfig{}, false, fmt.Errorf("unmarshal trading config: %w", err)
	}
	return cfg, true, nil
}

func (s *SQLiteStore) SaveTradingConfig(ctx context.Context, userID int64, cfg utilities.TradingConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal trading config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO trading_configs (user_id, config, updated_at) VALUES (?, ?, ?)`,
		userID, string(raw), time.Now().Unix())
	return err
}

// --- Maintenance ---

// CleanupOldTrades deletes trades settled before the cutoff.
func (s *SQLiteStore) CleanupOldTrades(olderThan time.Time) error {
	_, err := s.db.Exec(`DELETE FROM trade_history WHERE timestamp < ?`, olderThan.Unix())
	return err
}

// StartScheduledCleanup periodically prunes trades older than the retention
// window until the context is cancelled.
func (s *SQLiteStore) StartScheduledCleanup(ctx context.Context, interval, retention time.Duration, logger *utilities.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.CleanupOldTrades(time.Now().Add(-retention)); err != nil {
					logger.LogError("SQLiteStore: scheduled cleanup failed: %v", err)
				}
			}
		}
	}()
}
