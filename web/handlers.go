package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/dataprovider"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/bot"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/pkg/broker"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// userIDFromRequest reads the user_id query parameter, defaulting to 1 for
// single-user deployments.
func userIDFromRequest(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return 1, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func startBotHandler(controller AppController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		if err := controller.StartBot(r.Context(), userID); err != nil {
			var cfgErr *utilities.ConfigError
			switch {
			case errors.Is(err, bot.ErrAlreadyRunning):
				writeError(w, http.StatusConflict, err)
			case errors.As(err, &cfgErr):
				writeError(w, http.StatusBadRequest, err)
			case errors.Is(err, broker.ErrConnectFailed):
				writeError(w, http.StatusBadGateway, err)
			default:
				writeError(w, http.StatusInternalServerError, err)
			}
			return
		}
		writeJSON(w, http.StatusOK, controller.BotStatus(userID))
	}
}

func stopBotHandler(controller AppController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		controller.StopBot(userID)
		writeJSON(w, http.StatusOK, controller.BotStatus(userID))
	}
}

func botStatusHandler(controller AppController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, controller.BotStatus(userID))
	}
}

func allStatusesHandler(controller AppController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controller.AllStatuses())
	}
}

type tradeHistoryResponse struct {
	Trades  []utilities.TradeRecord `json:"trades"`
	Total   int                     `json:"total"`
	Page    int                     `json:"page"`
	PerPage int                     `json:"per_page"`
}

func tradeHistoryHandler(controller AppController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		query := r.URL.Query()
		filter := dataprovider.TradeFilter{Page: 1, PerPage: 20}
		if raw := query.Get("page"); raw != "" {
			if filter.Page, err = strconv.Atoi(raw); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
		if raw := query.Get("per_page"); raw != "" {
			if filter.PerPage, err = strconv.Atoi(raw); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
		if raw := query.Get("from"); raw != "" {
			if filter.From, err = time.Parse("2006-01-02", raw); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
		if raw := query.Get("to"); raw != "" {
			day, err := time.Parse("2006-01-02", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			// Inclusive end of day.
			filter.To = day.AddDate(0, 0, 1).Add(-time.Second)
		}

		trades, total, err := controller.TradeHistory(r.Context(), userID, filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if trades == nil {
			trades = []utilities.TradeRecord{}
		}
		writeJSON(w, http.StatusOK, tradeHistoryResponse{
			Trades:  trades,
			Total:   total,
			Page:    filter.Page,
			PerPage: filter.PerPage,
		})
	}
}

func dashboardStatsHandler(controller AppController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		stats, err := controller.DashboardStats(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func getConfigHandler(controller AppController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		cfg, err := controller.GetTradingConfig(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

func updateConfigHandler(controller AppController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		var cfg utilities.TradingConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := cfg.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		if err := controller.UpdateTradingConfig(r.Context(), userID, cfg); err != nil {
			if errors.Is(err, bot.ErrAlreadyRunning) {
				writeError(w, http.StatusConflict, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}
