package mocks

import (
	"context"

	"github.com/segyhp/client-followup/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockClientService struct {
	mock.Mock
}

func (m *MockClientService) CreateClient(ctx context.Context, req *domain.ClientRequest) (*domain.SaveResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SaveResult), args.Error(1)
}

func (m *MockClientService) UpdateClient(ctx context.Context, id string, req *domain.ClientRequest) (*domain.SaveResult, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SaveResult), args.Error(1)
}

func (m *MockClientService) DeleteClient(ctx context.Context, id string) (*domain.DeleteResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeleteResult), args.Error(1)
}

func (m *MockClientService) SetCompleted(ctx context.Context, id string, completed bool) (bool, error) {
	args := m.Called(ctx, id, completed)
	return args.Bool(0), args.Error(1)
}

func (m *MockClientService) GetClient(ctx context.Context, id string) (*domain.ClientView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClientView), args.Error(1)
}

func (m *MockClientService) ListClients(ctx context.Context, query domain.ListQuery) ([]*domain.ClientView, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ClientView), args.Error(1)
}

func (m *MockClientService) GetReminder(ctx context.Context, id string) (*domain.ReminderInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReminderInfo), args.Error(1)
}

func (m *MockClientService) DueToday(ctx context.Context) ([]*domain.ClientView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ClientView), args.Error(1)
}

func (m *MockClientService) Overdue(ctx context.Context) ([]*domain.ClientView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ClientView), args.Error(1)
}

func (m *MockClientService) Upcoming(ctx context.Context, limit int) ([]*domain.ClientView, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ClientView), args.Error(1)
}

func (m *MockClientService) ByDay(ctx context.Context, day string) ([]*domain.ClientView, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ClientView), args.Error(1)
}

func (m *MockClientService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

func (m *MockClientService) RequestNotificationPermission(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
