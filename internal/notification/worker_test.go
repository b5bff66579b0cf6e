package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/segyhp/client-followup/internal/domain"
)

type recordingDeliverer struct {
	delivered []domain.ReminderPayload
	err       error
}

func (d *recordingDeliverer) Deliver(_ context.Context, p domain.ReminderPayload) error {
	d.delivered = append(d.delivered, p)
	return d.err
}

func TestHandleReminderTask(t *testing.T) {
	payload := domain.ReminderPayload{ClientID: "c1", Title: domain.ReminderTitle, Body: "Follow up with Asha today"}
	task, err := NewReminderTask(payload)
	require.NoError(t, err)
	assert.Equal(t, TypeFollowUpReminder, task.Type())

	deliverer := &recordingDeliverer{}
	handler := HandleReminderTask(deliverer, zap.NewNop())

	require.NoError(t, handler(context.Background(), task))
	require.Len(t, deliverer.delivered, 1)
	assert.Equal(t, payload, deliverer.delivered[0])
}

func TestHandleReminderTask_BadPayloadSkipsRetry(t *testing.T) {
	handler := HandleReminderTask(&recordingDeliverer{}, zap.NewNop())

	err := handler(context.Background(), asynq.NewTask(TypeFollowUpReminder, []byte("{")))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleReminderTask_DeliveryError(t *testing.T) {
	deliverer := &recordingDeliverer{err: errors.New("push gateway down")}
	handler := HandleReminderTask(deliverer, zap.NewNop())
	task, err := NewReminderTask(domain.ReminderPayload{ClientID: "c1"})
	require.NoError(t, err)

	assert.ErrorContains(t, handler(context.Background(), task), "push gateway down")
}

func TestLogDeliverer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := LogDeliverer{Logger: zap.New(core)}

	require.NoError(t, d.Deliver(context.Background(), domain.ReminderPayload{
		ClientID: "c1",
		Title:    domain.ReminderTitle,
		Body:     "Follow up with Asha today",
	}))

	entries := logs.FilterMessage(domain.ReminderTitle).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "c1", entries[0].ContextMap()["clientId"])
}
