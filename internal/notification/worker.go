package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/segyhp/client-followup/internal/domain"
)

// Deliverer presents a due reminder to the user.
type Deliverer interface {
	Deliver(ctx context.Context, payload domain.ReminderPayload) error
}

// LogDeliverer writes due reminders to the log.
type LogDeliverer struct {
	Logger *zap.Logger
}

func (d LogDeliverer) Deliver(_ context.Context, payload domain.ReminderPayload) error {
	d.Logger.Info(payload.Title,
		zap.String("clientId", payload.ClientID),
		zap.String("body", payload.Body),
	)
	return nil
}

// HandleReminderTask decodes a reminder task and hands it to the deliverer.
func HandleReminderTask(deliverer Deliverer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p domain.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reminder payload", zap.Error(err))
			return fmt.Errorf("decode reminder payload: %w: %w", err, asynq.SkipRetry)
		}

		if err := deliverer.Deliver(ctx, p); err != nil {
			logger.Error("reminder delivery failed", zap.String("clientId", p.ClientID), zap.Error(err))
			return err
		}
		return nil
	}
}

// NewWorker builds the asynq server that fires reminders from queue.
func NewWorker(opt asynq.RedisClientOpt, queue string, concurrency int, deliverer Deliverer, logger *zap.Logger) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		Logger:      logger.Sugar(),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeFollowUpReminder, HandleReminderTask(deliverer, logger))
	return srv, mux
}
