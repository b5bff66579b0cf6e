package mocks

import (
	"context"
	"time"

	"github.com/segyhp/client-followup/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPlatform struct {
	mock.Mock
}

func (m *MockPlatform) Schedule(ctx context.Context, triggerAt time.Time, payload domain.ReminderPayload) (string, error) {
	args := m.Called(ctx, triggerAt, payload)
	return args.String(0), args.Error(1)
}

func (m *MockPlatform) Cancel(ctx context.Context, identifier string) error {
	args := m.Called(ctx, identifier)
	return args.Error(0)
}

func (m *MockPlatform) ListScheduled(ctx context.Context) ([]domain.ScheduledReminder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduledReminder), args.Error(1)
}

func (m *MockPlatform) RequestPermission(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
