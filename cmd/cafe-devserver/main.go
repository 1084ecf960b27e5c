package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cafeteria/internal/config"
	"cafeteria/internal/database"
	"cafeteria/internal/devserver"
	"cafeteria/internal/logging"
	"cafeteria/internal/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	port       = flag.Int("port", 0, "API server port, overrides the configuration")
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.DevServer.Port = *port
	}

	logger, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure logging: %v\n", err)
		os.Exit(1)
	}
	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DevServer.DatabaseDriver, cfg.DevServer.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	store, err := devserver.NewStore(db)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize store")
	}
	if cfg.DevServer.SeedOnStart {
		msg, err := store.Seed()
		if err != nil {
			logger.WithError(err).Fatal("Failed to seed default data")
		}
		logger.Info(msg)
	}

	metrics := monitoring.NewMonitor()
	if cfg.Metrics.Enabled {
		metricsServer := monitoring.NewServer(metrics, cfg.Metrics.Port, cfg.Metrics.Path)
		go startMetricsServer(logger, metricsServer)
		defer metricsServer.Close()
	}

	api := devserver.NewServer(store, devserver.WithLogger(logger), devserver.WithMetrics(metrics))
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.DevServer.Port),
		Handler: api.Router(),
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down servers...")
		api.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("API server shutdown error")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":   cfg.DevServer.Port,
		"driver": cfg.DevServer.DatabaseDriver,
	}).Info("Starting dev backend")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("API server error")
	}
}

func startMetricsServer(logger logrus.FieldLogger, srv *http.Server) {
	logger.WithField("addr", srv.Addr).Info("Starting metrics server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("Metrics server error")
	}
}
