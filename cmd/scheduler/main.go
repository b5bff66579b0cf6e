package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/client-followup/internal/app"
	"github.com/segyhp/client-followup/internal/config"
	"github.com/segyhp/client-followup/internal/notification"
	"github.com/segyhp/client-followup/internal/service"
	"github.com/segyhp/client-followup/pkg/logger"
)

const jobTimeout = 2 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Logging.Level, cfg.LogFormat())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	zl.Info("starting follow-up scheduler")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	tracker, err := app.New(ctx, cfg, zl)
	cancel()
	if err != nil {
		zl.Fatal("failed to initialize tracker", zap.Error(err))
	}
	defer func() { _ = tracker.Close() }()

	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.Location()))
	if err := setupCronJobs(c, cfg, tracker.Service, zl); err != nil {
		zl.Fatal("failed to schedule cron jobs", zap.Error(err))
	}
	c.Start()

	// the worker only runs when reminders live on the asynq queue
	var worker *asynq.Server
	if cfg.Notification.Backend == config.NotificationAsynq {
		var mux *asynq.ServeMux
		worker, mux = notification.NewWorker(
			app.QueueRedisOpt(cfg),
			cfg.Notification.Queue,
			cfg.Notification.Concurrency,
			notification.LogDeliverer{Logger: zl.Named("reminder")},
			zl.Named("worker"),
		)
		if err := worker.Start(mux); err != nil {
			zl.Fatal("failed to start reminder worker", zap.Error(err))
		}
	}

	zl.Info("scheduler started",
		zap.String("auditSchedule", cfg.Scheduler.AuditSchedule),
		zap.String("digestSchedule", cfg.Scheduler.DigestSchedule),
		zap.Bool("worker", worker != nil),
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down scheduler")
	<-c.Stop().Done()
	if worker != nil {
		worker.Shutdown()
	}
	zl.Info("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, svc *service.ClientService, zl *zap.Logger) error {
	// Cancel reminders whose client was deleted while the platform was unreachable
	if _, err := c.AddFunc(cfg.Scheduler.AuditSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		pruned, err := svc.AuditReminders(ctx)
		if err != nil {
			zl.Error("reminder audit failed", zap.Error(err))
			return
		}
		zl.Info("reminder audit finished", zap.Int("pruned", pruned))
	}); err != nil {
		return err
	}

	// Morning summary of today's and overdue follow-ups
	if _, err := c.AddFunc(cfg.Scheduler.DigestSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if _, err := svc.Digest(ctx); err != nil {
			zl.Error("follow-up digest failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	return nil
}
