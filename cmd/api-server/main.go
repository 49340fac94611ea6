package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/apiserver"
	"github.com/clientflow/clientflow/pkg/config"
	"github.com/clientflow/clientflow/pkg/engine"
	"github.com/clientflow/clientflow/pkg/eventbus"
	"github.com/clientflow/clientflow/pkg/mailer"
	"github.com/clientflow/clientflow/pkg/notify"
	"github.com/clientflow/clientflow/pkg/store"
	"github.com/clientflow/clientflow/pkg/store/clickhouse"
	"github.com/clientflow/clientflow/pkg/store/postgres"
	redisclient "github.com/clientflow/clientflow/pkg/store/redis"
	"github.com/clientflow/clientflow/pkg/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	db, err := postgres.NewStore(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	redis, err := redisclient.NewClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()

	var activity store.ActivityStore
	if cfg.Logging.ActivityDriver == "clickhouse" {
		logger.Info("using clickhouse for activity storage")
		activity, err = clickhouse.NewClickHouseActivityStore(
			cfg.ClickHouse.Hosts[0],
			cfg.ClickHouse.Database,
			cfg.ClickHouse.User,
			cfg.ClickHouse.Password,
			logger,
		)
		if err != nil {
			logger.Fatal("Failed to initialize clickhouse activity store", zap.Error(err))
		}
	} else {
		logger.Info("using postgres for activity storage")
		activity = postgres.NewActivityRepository(db.DB())
	}
	defer activity.Close()

	approvalRepo := postgres.NewApprovalRepository(db.DB())
	notificationRepo := postgres.NewNotificationRepository(db.DB())
	bus := eventbus.NewBus(redis.Client())

	eng := engine.NewEngine(
		approvalRepo,
		notify.NewService(notificationRepo, bus, logger),
		mailer.NewClient(cfg.Email, logger),
		tracker.NewBridge(cfg.Tracker, logger),
		logger,
		engine.WithActivityStore(activity),
	)

	server := apiserver.NewServer(db, redis, eng, activity, cfg, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.ReadTimeout * 2,
	}

	go func() {
		logger.Info("Starting API server", zap.Int("port", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	go func() {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		logger.Info("Starting metrics server", zap.Int("port", cfg.Server.MetricsPort))
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.MetricsPort), metricsMux); err != nil {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}
