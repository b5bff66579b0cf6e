package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/segyhp/client-followup/internal/config"
	"github.com/segyhp/client-followup/internal/handler"
	"github.com/segyhp/client-followup/internal/notification"
	"github.com/segyhp/client-followup/internal/repository"
	"github.com/segyhp/client-followup/internal/service"
)

// App is the wired tracker shared by the server and scheduler binaries.
type App struct {
	Config  *config.Config
	Service *service.ClientService
	Checks  map[string]handler.Check

	closers []func() error
}

// New connects the configured storage and notification backends and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Checks: make(map[string]handler.Check)}

	store, err := a.initStore(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	a.Checks["storage"] = store.Ping

	platform, err := a.initPlatform(cfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init notifications: %w", err)
	}

	loc := cfg.Location()
	repo := repository.NewClientRepository(store, cfg.Storage.Key, nil)
	classifier := service.NewClassifier(loc, logger.Named("classifier"))
	reminders := service.NewReminderScheduler(platform, loc, cfg.Scheduler.ReminderHour, nil, logger.Named("reminders"))

	a.Service = service.NewClientService(repo, reminders, classifier, service.Settings{
		Location:       loc,
		UpcomingLimit:  cfg.Scheduler.UpcomingLimit,
		DashboardLimit: cfg.Scheduler.DashboardLimit,
	}, logger.Named("clients"))

	logger.Info("tracker initialized",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("notifications", cfg.Notification.Backend),
		zap.String("timezone", loc.String()),
	)
	return a, nil
}

func (a *App) initStore(ctx context.Context, cfg *config.Config) (repository.BlobStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		return repository.NewRedisBlobStore(client), nil

	case config.StoragePostgres:
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := repository.EnsurePostgresSchema(ctx, db); err != nil {
			return nil, err
		}
		return repository.NewPostgresBlobStore(db), nil

	case config.StorageMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })
		return repository.NewMongoBlobStore(client, cfg.Mongo.Database, cfg.Mongo.Collection), nil

	default:
		return repository.NewMemoryBlobStore(), nil
	}
}

func (a *App) initPlatform(cfg *config.Config) (notification.Platform, error) {
	if cfg.Notification.Backend != config.NotificationAsynq {
		return notification.NewMemoryPlatform(), nil
	}

	platform := notification.NewAsynqPlatform(QueueRedisOpt(cfg), cfg.Notification.Queue)
	a.closers = append(a.closers, platform.Close)
	a.Checks["notifications"] = func(ctx context.Context) error {
		_, err := platform.RequestPermission(ctx)
		return err
	}
	return platform, nil
}

// QueueRedisOpt is the Redis connection the reminder queue lives on.
func QueueRedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.QueueDB,
	}
}

// Close releases backend connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
