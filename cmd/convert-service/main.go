package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/config"
	"github.com/MtnBiker/convert-apple-health-export/pkg/common/database"
	"github.com/MtnBiker/convert-apple-health-export/pkg/common/logger"
	"github.com/MtnBiker/convert-apple-health-export/pkg/conversion"
	"github.com/MtnBiker/convert-apple-health-export/pkg/observability/metrics"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init()
	cfg := config.Load()

	m := metrics.New()
	svc, closeSinks, err := conversion.NewServiceFromConfig(cfg, m)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to set up conversion")
	}
	defer database.CloseRedis()
	defer database.ClosePostgres()
	defer closeSinks()

	handler := conversion.NewHTTPHandler(svc, cfg.MaxRequestBody)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Conversion Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Conversion Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Conversion Service stopped")
}
