package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/segyhp/client-followup/internal/domain"
)

const TypeFollowUpReminder = "followup:reminder"

const listPageSize = 100

// enqueuer is the part of *asynq.Client the platform uses.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// inspector is the part of *asynq.Inspector the platform uses.
type inspector interface {
	ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	ListPendingTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	DeleteTask(queue, id string) error
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	Close() error
}

// AsynqPlatform schedules reminders as delayed asynq tasks on a Redis-backed queue.
type AsynqPlatform struct {
	client    enqueuer
	inspector inspector
	queue     string
}

func NewAsynqPlatform(opt asynq.RedisClientOpt, queue string) *AsynqPlatform {
	return newAsynqPlatform(asynq.NewClient(opt), asynq.NewInspector(opt), queue)
}

func newAsynqPlatform(client enqueuer, insp inspector, queue string) *AsynqPlatform {
	return &AsynqPlatform{client: client, inspector: insp, queue: queue}
}

// NewReminderTask builds the task delivered at fireAt.
func NewReminderTask(payload domain.ReminderPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeFollowUpReminder, b), nil
}

func (p *AsynqPlatform) Schedule(ctx context.Context, triggerAt time.Time, payload domain.ReminderPayload) (string, error) {
	task, err := NewReminderTask(payload)
	if err != nil {
		return "", fmt.Errorf("encode reminder payload: %w", err)
	}

	info, err := p.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(triggerAt),
		asynq.Queue(p.queue),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue reminder: %w", err)
	}
	return info.ID, nil
}

func (p *AsynqPlatform) Cancel(_ context.Context, identifier string) error {
	err := p.inspector.DeleteTask(p.queue, identifier)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return err
}

// ListScheduled returns reminders waiting on the queue. A task enqueued with a
// trigger time that had already arrived sits in the pending set rather than
// the scheduled one, so both are scanned.
func (p *AsynqPlatform) ListScheduled(_ context.Context) ([]domain.ScheduledReminder, error) {
	scheduled, err := p.collect(p.inspector.ListScheduledTasks)
	if err != nil {
		return nil, fmt.Errorf("list scheduled reminders: %w", err)
	}
	pending, err := p.collect(p.inspector.ListPendingTasks)
	if err != nil {
		return nil, fmt.Errorf("list pending reminders: %w", err)
	}
	return append(scheduled, pending...), nil
}

type listFunc func(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)

func (p *AsynqPlatform) collect(list listFunc) ([]domain.ScheduledReminder, error) {
	var out []domain.ScheduledReminder

	for page := 1; ; page++ {
		tasks, err := list(p.queue, asynq.PageSize(listPageSize), asynq.Page(page))
		if errors.Is(err, asynq.ErrQueueNotFound) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		for _, t := range tasks {
			if t.Type != TypeFollowUpReminder {
				continue
			}
			var payload domain.ReminderPayload
			if err := json.Unmarshal(t.Payload, &payload); err != nil {
				continue
			}
			out = append(out, domain.ScheduledReminder{
				Identifier: t.ID,
				TriggerAt:  t.NextProcessAt,
				Payload:    payload,
			})
		}

		if len(tasks) < listPageSize {
			return out, nil
		}
	}
}

// RequestPermission reports false while the reminder queue is paused.
func (p *AsynqPlatform) RequestPermission(_ context.Context) (bool, error) {
	info, err := p.inspector.GetQueueInfo(p.queue)
	if errors.Is(err, asynq.ErrQueueNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return !info.Paused, nil
}

func (p *AsynqPlatform) Close() error {
	return errors.Join(p.client.Close(), p.inspector.Close())
}
