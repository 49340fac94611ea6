package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/config"
	"github.com/clientflow/clientflow/pkg/engine"
	"github.com/clientflow/clientflow/pkg/eventbus"
	"github.com/clientflow/clientflow/pkg/mailer"
	"github.com/clientflow/clientflow/pkg/notify"
	"github.com/clientflow/clientflow/pkg/store/postgres"
	redisclient "github.com/clientflow/clientflow/pkg/store/redis"
	"github.com/clientflow/clientflow/pkg/tracker"
)

// The sweeper is the in-process alternative to triggering the sweep over
// HTTP from an external cron: same engine method, driven by a ticker.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	db, err := postgres.NewStore(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redis, err := redisclient.NewClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()

	approvalRepo := postgres.NewApprovalRepository(db.DB())
	notificationRepo := postgres.NewNotificationRepository(db.DB())
	bus := eventbus.NewBus(redis.Client())

	eng := engine.NewEngine(
		approvalRepo,
		notify.NewService(notificationRepo, bus, logger),
		mailer.NewClient(cfg.Email, logger),
		tracker.NewBridge(cfg.Tracker, logger),
		logger,
		engine.WithActivityStore(postgres.NewActivityRepository(db.DB())),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval := cfg.Sweep.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := eng.AutoApproveSweep(ctx); err != nil {
					logger.Error("auto-approve sweep failed", zap.Error(err))
				}
			}
		}
	}()

	logger.Info("sweeper started", zap.Duration("interval", interval))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("sweeper shutting down")
}
