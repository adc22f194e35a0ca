package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TradesPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iasinais_trades_placed_total",
			Help: "Total number of options placed (by direction).",
		},
		[]string{"direction"},
	)

	TradesSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iasinais_trades_settled_total",
			Help: "Total number of settled options (by result).",
		},
		[]string{"result"},
	)

	SignalsEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iasinais_signals_evaluated_total",
			Help: "Total signal evaluations (by resulting direction).",
		},
		[]string{"direction"},
	)

	BotsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "iasinais_bots_running",
			Help: "Current number of bot sessions in the Running state.",
		},
	)

	SessionProfit = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "iasinais_session_profit",
			Help: "Cumulative profit of the current session per user.",
		},
		[]string{"user_id"},
	)

	MartingaleLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "iasinais_martingale_level",
			Help: "Current martingale escalation level per user.",
		},
		[]string{"user_id"},
	)
)

func init() {
	prometheus.MustRegister(TradesPlaced, TradesSettled, SignalsEvaluated, BotsRunning, SessionProfit, MartingaleLevel)
}
