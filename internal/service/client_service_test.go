package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/segyhp/client-followup/internal/domain"
	"github.com/segyhp/client-followup/internal/mocks"
	"github.com/segyhp/client-followup/internal/notification"
	"github.com/segyhp/client-followup/internal/repository"
	customError "github.com/segyhp/client-followup/pkg/errors"
)

type serviceFixture struct {
	service  *ClientService
	repo     repository.ClientRepository
	platform *notification.MemoryPlatform
	now      time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{now: time.Date(2024, 3, 15, 8, 0, 0, 0, testLoc)}
	clock := func() time.Time { return f.now }

	seq := 0
	newID := func() string {
		seq++
		return fmt.Sprintf("client-%d", seq)
	}

	f.platform = notification.NewMemoryPlatform()
	f.repo = repository.NewClientRepository(repository.NewMemoryBlobStore(), "@fincorp_clients", clock)
	scheduler := NewReminderScheduler(f.platform, testLoc, DefaultReminderHour, clock, zap.NewNop())
	classifier := NewClassifier(testLoc, zap.NewNop())

	f.service = NewClientService(f.repo, scheduler, classifier, Settings{
		Location: testLoc,
		Now:      clock,
		NewID:    newID,
	}, zap.NewNop())
	return f
}

func validRequest(followUp string) *domain.ClientRequest {
	req := &domain.ClientRequest{
		NameOfCustomer:     "  Ravi Kumar ",
		ContactNumber:      "9876543210",
		LoginBankName:      "SBI",
		RequiredLoanAmount: "5,00,000",
	}
	if followUp != "" {
		req.FollowUpDate = strPtr(followUp)
	}
	return req
}

func TestClientService_CreateClient(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	result, err := f.service.CreateClient(ctx, validRequest("2024-03-20"))
	require.NoError(t, err)
	require.NoError(t, result.ReminderWarning)

	client := result.Client
	assert.Equal(t, "client-1", client.ID)
	assert.Equal(t, "Ravi Kumar", client.NameOfCustomer)
	assert.False(t, client.FollowUpCompleted)
	require.NotNil(t, client.FollowUpDate)
	assert.Equal(t, "2024-03-20T00:00:00+05:30", *client.FollowUpDate)
	assert.True(t, f.now.Equal(client.CreatedAt))

	reminder, err := f.service.GetReminder(ctx, client.ID)
	require.NoError(t, err)
	require.NotNil(t, reminder)
	assert.True(t, reminder.TriggerAt.Equal(time.Date(2024, 3, 20, 9, 0, 0, 0, testLoc)))
}

func TestClientService_CreateClientValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.ClientRequest)
		field  string
		msg    string
	}{
		{
			name:   "blank customer name",
			mutate: func(r *domain.ClientRequest) { r.NameOfCustomer = "   " },
			field:  "nameOfCustomer",
			msg:    "Name of Customer is required",
		},
		{
			name:   "missing contact",
			mutate: func(r *domain.ClientRequest) { r.ContactNumber = "" },
			field:  "contactNumber",
			msg:    "Contact Number is required",
		},
		{
			name:   "short contact",
			mutate: func(r *domain.ClientRequest) { r.ContactNumber = "98765" },
			field:  "contactNumber",
			msg:    "Contact Number must be 10 digits",
		},
		{
			name:   "contact with letters",
			mutate: func(r *domain.ClientRequest) { r.ContactNumber = "98765abcde" },
			field:  "contactNumber",
			msg:    "Contact Number must be 10 digits",
		},
		{
			name:   "missing bank",
			mutate: func(r *domain.ClientRequest) { r.LoginBankName = "" },
			field:  "loginBankName",
			msg:    "Bank Name is required",
		},
		{
			name:   "unparseable follow-up date",
			mutate: func(r *domain.ClientRequest) { r.FollowUpDate = strPtr("20/03/2024") },
			field:  "followUpDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newServiceFixture(t)

			req := validRequest("")
			tt.mutate(req)

			result, err := f.service.CreateClient(ctx, req)
			assert.Nil(t, result)

			var verr *customError.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, customError.ErrCodeValidationFailed, customError.Code(err))
			assert.Contains(t, verr.Fields, tt.field)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, verr.Fields[tt.field])
			}

			all, err := f.repo.GetAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestClientService_UpdateClientKeepsCompletionAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.service.CreateClient(ctx, validRequest("2024-03-20"))
	require.NoError(t, err)
	id := created.Client.ID

	ok, err := f.service.SetCompleted(ctx, id, true)
	require.NoError(t, err)
	require.True(t, ok)

	f.now = f.now.Add(2 * time.Hour)
	req := validRequest("2024-03-25")
	req.NameOfCustomer = "Ravi K"

	updated, err := f.service.UpdateClient(ctx, id, req)
	require.NoError(t, err)
	assert.Equal(t, id, updated.Client.ID)
	assert.Equal(t, "Ravi K", updated.Client.NameOfCustomer)
	assert.True(t, updated.Client.FollowUpCompleted)
	assert.True(t, created.Client.CreatedAt.Equal(updated.Client.CreatedAt))

	scheduled, err := f.platform.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.True(t, scheduled[0].TriggerAt.Equal(time.Date(2024, 3, 25, 9, 0, 0, 0, testLoc)))
}

func TestClientService_UpdateMissingClient(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.UpdateClient(context.Background(), "missing", validRequest(""))
	assert.ErrorIs(t, err, customError.ErrClientNotFound)
}

func TestClientService_DeleteClientRemovesRecordAndReminder(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.service.CreateClient(ctx, validRequest("2024-03-20"))
	require.NoError(t, err)

	result, err := f.service.DeleteClient(ctx, created.Client.ID)
	require.NoError(t, err)
	assert.NoError(t, result.ReminderWarning)

	stored, err := f.repo.GetByID(ctx, created.Client.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	scheduled, _ := f.platform.ListScheduled(ctx)
	assert.Empty(t, scheduled)

	_, err = f.service.DeleteClient(ctx, created.Client.ID)
	assert.ErrorIs(t, err, customError.ErrClientNotFound)
}

func TestClientService_SetCompletedLeavesReminderAlone(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.service.CreateClient(ctx, validRequest("2024-03-20"))
	require.NoError(t, err)

	ok, err := f.service.SetCompleted(ctx, created.Client.ID, true)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := f.repo.GetByID(ctx, created.Client.ID)
	require.NoError(t, err)
	assert.True(t, stored.FollowUpCompleted)

	scheduled, _ := f.platform.ListScheduled(ctx)
	assert.Len(t, scheduled, 1)

	ok, err = f.service.SetCompleted(ctx, "missing", true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClientService_ReminderFailureDoesNotFailSave(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 8, 0, 0, 0, testLoc)
	clock := func() time.Time { return now }

	platform := new(mocks.MockPlatform)
	platform.On("ListScheduled", mock.Anything).Return(nil, errors.New("platform offline"))

	repo := repository.NewClientRepository(repository.NewMemoryBlobStore(), "@fincorp_clients", clock)
	svc := NewClientService(
		repo,
		NewReminderScheduler(platform, testLoc, DefaultReminderHour, clock, zap.NewNop()),
		NewClassifier(testLoc, zap.NewNop()),
		Settings{Location: testLoc, Now: clock},
		zap.NewNop(),
	)

	result, err := svc.CreateClient(ctx, validRequest("2024-03-20"))
	require.NoError(t, err)
	require.NotNil(t, result.Client)
	assert.ErrorIs(t, result.ReminderWarning, customError.ErrReminderReconcile)
	assert.Equal(t, customError.ErrCodeReminderError, customError.Code(result.ReminderWarning))

	stored, err := repo.GetByID(ctx, result.Client.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)

	deleted, err := svc.DeleteClient(ctx, result.Client.ID)
	require.NoError(t, err)
	assert.Error(t, deleted.ReminderWarning)

	stored, err = repo.GetByID(ctx, result.Client.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestClientService_StorageFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockClientRepository)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Client")).Return(nil, errors.New("disk full"))

	platform := new(mocks.MockPlatform)
	svc := NewClientService(
		repo,
		NewReminderScheduler(platform, testLoc, DefaultReminderHour, nil, zap.NewNop()),
		NewClassifier(testLoc, zap.NewNop()),
		Settings{Location: testLoc},
		zap.NewNop(),
	)

	_, err := svc.CreateClient(ctx, validRequest("2024-03-20"))
	assert.ErrorIs(t, err, customError.ErrStorage)
	platform.AssertNotCalled(t, "ListScheduled", mock.Anything)
	repo.AssertExpectations(t)
}

func TestClientService_ListClients(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	mk := func(name, phone, day string) {
		req := &domain.ClientRequest{NameOfCustomer: name, ContactNumber: phone, LoginBankName: "HDFC"}
		if day != "" {
			req.FollowUpDate = strPtr(day)
		}
		_, err := f.service.CreateClient(ctx, req)
		require.NoError(t, err)
	}
	mk("Asha", "9000000001", "2024-03-10")
	mk("Bala", "9000000002", "2024-03-15")
	mk("Chitra", "9000000003", "2024-03-20")
	mk("Dev", "9000000004", "")

	names := func(views []*domain.ClientView) []string {
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.NameOfCustomer)
		}
		return out
	}

	tests := []struct {
		query    domain.ListQuery
		expected []string
	}{
		{query: domain.ListQuery{}, expected: []string{"Asha", "Bala", "Chitra", "Dev"}},
		{query: domain.ListQuery{Filter: domain.FilterToday}, expected: []string{"Bala"}},
		{query: domain.ListQuery{Filter: domain.FilterOverdue}, expected: []string{"Asha"}},
		{query: domain.ListQuery{Filter: domain.FilterUpcoming}, expected: []string{"Chitra"}},
		{query: domain.ListQuery{Search: "000003"}, expected: []string{"Chitra"}},
		{query: domain.ListQuery{Search: "hdfc", Filter: domain.FilterToday}, expected: []string{"Bala"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.query.Filter, tt.query.Search), func(t *testing.T) {
			views, err := f.service.ListClients(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, names(views))
		})
	}

	_, err := f.service.ListClients(ctx, domain.ListQuery{Filter: "someday"})
	assert.ErrorIs(t, err, customError.ErrValidation)
}

func TestClientService_Dashboard(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	for i, day := range []string{"2024-03-10", "2024-03-15", "2024-03-16", "2024-03-17", "2024-03-18", "2024-03-19"} {
		req := validRequest(day)
		req.NameOfCustomer = fmt.Sprintf("Customer %d", i)
		_, err := f.service.CreateClient(ctx, req)
		require.NoError(t, err)
	}

	dashboard, err := f.service.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 6, dashboard.TotalClients)
	assert.Len(t, dashboard.Overdue, 1)
	assert.Len(t, dashboard.DueToday, 1)
	assert.Len(t, dashboard.Upcoming, 3)
	assert.Equal(t, "2024-03-16", dashboard.Upcoming[0].FollowUpDay)
	assert.Equal(t, "dueSoon", dashboard.Upcoming[0].Badge)
	assert.Equal(t, "urgent", dashboard.Overdue[0].Badge)
	assert.Equal(t, "₹30,00,000", dashboard.PipelineAmount)
	assert.Equal(t, "₹5,00,000", dashboard.DueToday[0].LoanAmountFormatted)
}

func TestClientService_ByDay(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.service.CreateClient(ctx, validRequest("2024-03-20"))
	require.NoError(t, err)

	views, err := f.service.ByDay(ctx, "2024-03-20")
	require.NoError(t, err)
	assert.Len(t, views, 1)

	_, err = f.service.ByDay(ctx, "March 20")
	assert.ErrorIs(t, err, customError.ErrValidation)
}

func TestClientService_AuditReminders(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.service.CreateClient(ctx, validRequest("2024-03-20"))
	require.NoError(t, err)
	_, err = f.platform.Schedule(ctx, time.Date(2024, 3, 22, 9, 0, 0, 0, testLoc), domain.ReminderPayload{ClientID: "deleted-elsewhere"})
	require.NoError(t, err)

	pruned, err := f.service.AuditReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	reminder, err := f.service.GetReminder(ctx, created.Client.ID)
	require.NoError(t, err)
	assert.NotNil(t, reminder)
}

func TestClientService_RequestNotificationPermission(t *testing.T) {
	f := newServiceFixture(t)

	granted, err := f.service.RequestNotificationPermission(context.Background())
	require.NoError(t, err)
	assert.True(t, granted)

	f.platform.SetPermission(false)
	granted, err = f.service.RequestNotificationPermission(context.Background())
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestClientService_CallOrdering(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 8, 0, 0, 0, testLoc)
	clock := func() time.Time { return now }

	newService := func(repo *mocks.MockClientRepository, platform *mocks.MockPlatform) *ClientService {
		return NewClientService(
			repo,
			NewReminderScheduler(platform, testLoc, DefaultReminderHour, clock, zap.NewNop()),
			NewClassifier(testLoc, zap.NewNop()),
			Settings{Location: testLoc, Now: clock, NewID: func() string { return "c1" }},
			zap.NewNop(),
		)
	}

	t.Run("save is persisted before the reminder is reconciled", func(t *testing.T) {
		var calls []string
		record := func(name string) func(mock.Arguments) {
			return func(mock.Arguments) { calls = append(calls, name) }
		}

		repo := new(mocks.MockClientRepository)
		platform := new(mocks.MockPlatform)

		repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Client")).
			Run(record("repo.Save")).
			Return(clientOn("c1", "2024-03-20"), nil)
		platform.On("ListScheduled", mock.Anything).
			Run(record("platform.ListScheduled")).
			Return([]domain.ScheduledReminder{}, nil)
		platform.On("Schedule", mock.Anything, mock.Anything, mock.Anything).
			Run(record("platform.Schedule")).
			Return("r1", nil)

		_, err := newService(repo, platform).CreateClient(ctx, validRequest("2024-03-20"))
		require.NoError(t, err)

		assert.Equal(t, []string{"repo.Save", "platform.ListScheduled", "platform.Schedule"}, calls)
	})

	t.Run("reminder is cancelled before the record is deleted", func(t *testing.T) {
		var calls []string
		record := func(name string) func(mock.Arguments) {
			return func(mock.Arguments) { calls = append(calls, name) }
		}

		repo := new(mocks.MockClientRepository)
		platform := new(mocks.MockPlatform)

		repo.On("GetByID", mock.Anything, "c1").
			Run(record("repo.GetByID")).
			Return(clientOn("c1", "2024-03-20"), nil)
		platform.On("ListScheduled", mock.Anything).
			Run(record("platform.ListScheduled")).
			Return([]domain.ScheduledReminder{{Identifier: "r1", Payload: domain.ReminderPayload{ClientID: "c1"}}}, nil)
		platform.On("Cancel", mock.Anything, "r1").
			Run(record("platform.Cancel")).
			Return(nil)
		repo.On("Delete", mock.Anything, "c1").
			Run(record("repo.Delete")).
			Return(nil)

		result, err := newService(repo, platform).DeleteClient(ctx, "c1")
		require.NoError(t, err)
		assert.NoError(t, result.ReminderWarning)

		assert.Equal(t, []string{"repo.GetByID", "platform.ListScheduled", "platform.Cancel", "repo.Delete"}, calls)
		repo.AssertExpectations(t)
		platform.AssertExpectations(t)
	})
}
