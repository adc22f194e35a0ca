package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// NewRouter builds the HTTP API router.
func NewRouter(controller AppController) *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/bot/start", startBotHandler(controller)).Methods(http.MethodPost)
	api.HandleFunc("/bot/stop", stopBotHandler(controller)).Methods(http.MethodPost)
	api.HandleFunc("/bot/status", botStatusHandler(controller)).Methods(http.MethodGet)
	api.HandleFunc("/bots", allStatusesHandler(controller)).Methods(http.MethodGet)
	api.HandleFunc("/trades/history", tradeHistoryHandler(controller)).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/stats", dashboardStatsHandler(controller)).Methods(http.MethodGet)
	api.HandleFunc("/config", getConfigHandler(controller)).Methods(http.MethodGet)
	api.HandleFunc("/config", updateConfigHandler(controller)).Methods(http.MethodPost)
	api.HandleFunc("/ws/status", statusFeedHandler(controller)).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return router
}

// StartWebServer starts the API server in a new goroutine and shuts it down
// gracefully when the context is cancelled.
func StartWebServer(ctx context.Context, controller AppController, cfg utilities.WebConfig) {
	addr := cfg.ListenAddr
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(controller),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		controller.Logger().LogInfo("Starting API server on %s", addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			controller.Logger().LogFatal("API server failed: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		controller.Logger().LogInfo("Shutting down API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			controller.Logger().LogError("API server graceful shutdown failed: %v", err)
		}
	}()
}
