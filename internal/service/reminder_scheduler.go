package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/segyhp/client-followup/internal/domain"
	"github.com/segyhp/client-followup/internal/notification"
	customError "github.com/segyhp/client-followup/pkg/errors"
	"github.com/segyhp/client-followup/pkg/utils"
)

const DefaultReminderHour = 9

// ReminderScheduler keeps at most one pending reminder per client, firing at
// the reminder hour on the follow-up day, and none for past days.
type ReminderScheduler struct {
	platform notification.Platform
	loc      *time.Location
	hour     int
	now      func() time.Time
	logger   *zap.Logger
}

func NewReminderScheduler(
	platform notification.Platform,
	loc *time.Location,
	hour int,
	now func() time.Time,
	logger *zap.Logger,
) *ReminderScheduler {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderScheduler{
		platform: platform,
		loc:      loc,
		hour:     hour,
		now:      now,
		logger:   logger,
	}
}

// TriggerFor returns the reminder instant for a stored follow-up date.
func (s *ReminderScheduler) TriggerFor(followUpDate string) (time.Time, error) {
	day, err := utils.DayStringFromStored(followUpDate, s.loc)
	if err != nil {
		return time.Time{}, err
	}
	midnight, err := utils.ParseDay(day, s.loc)
	if err != nil {
		return time.Time{}, err
	}
	return utils.AtHour(midnight, s.hour, s.loc), nil
}

// Reconcile replaces whatever reminder the client has with one matching its
// current follow-up date. It returns the scheduled reminder, or nil when the
// client has no date or the trigger time has already passed.
func (s *ReminderScheduler) Reconcile(ctx context.Context, client *domain.Client) (*domain.ReminderInfo, error) {
	if err := s.Cancel(ctx, client.ID); err != nil {
		return nil, err
	}

	if !client.HasFollowUp() {
		return nil, nil
	}

	triggerAt, err := s.TriggerFor(*client.FollowUpDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", customError.ErrInvalidFollowUpDate, err)
	}

	if triggerAt.Before(s.now()) {
		s.logger.Debug("follow-up reminder time has passed, not scheduling",
			zap.String("clientId", client.ID),
			zap.Time("triggerAt", triggerAt),
		)
		return nil, nil
	}

	payload := domain.ReminderPayload{
		ClientID: client.ID,
		Title:    domain.ReminderTitle,
		Body:     fmt.Sprintf(domain.ReminderBodyTemplate, client.NameOfCustomer),
	}

	id, err := s.platform.Schedule(ctx, triggerAt, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule: %w", customError.ErrNotificationPlatform, err)
	}

	s.logger.Info("scheduled follow-up reminder",
		zap.String("clientId", client.ID),
		zap.String("identifier", id),
		zap.Time("triggerAt", triggerAt),
	)

	return &domain.ReminderInfo{ClientID: client.ID, Identifier: id, TriggerAt: triggerAt}, nil
}

// Cancel removes every scheduled reminder referencing clientID.
func (s *ReminderScheduler) Cancel(ctx context.Context, clientID string) error {
	scheduled, err := s.platform.ListScheduled(ctx)
	if err != nil {
		return fmt.Errorf("%w: list: %w", customError.ErrNotificationPlatform, err)
	}

	var errs []error
	for _, r := range scheduled {
		if r.Payload.ClientID != clientID {
			continue
		}
		if err := s.platform.Cancel(ctx, r.Identifier); err != nil {
			errs = append(errs, fmt.Errorf("%w: cancel %s: %w", customError.ErrNotificationPlatform, r.Identifier, err))
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the pending reminder for clientID, or nil.
func (s *ReminderScheduler) Lookup(ctx context.Context, clientID string) (*domain.ReminderInfo, error) {
	scheduled, err := s.platform.ListScheduled(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", customError.ErrNotificationPlatform, err)
	}

	for _, r := range scheduled {
		if r.Payload.ClientID == clientID {
			return &domain.ReminderInfo{
				ClientID:   clientID,
				Identifier: r.Identifier,
				TriggerAt:  r.TriggerAt,
			}, nil
		}
	}
	return nil, nil
}

// PruneOrphans cancels reminders whose client is not in known and returns how many were removed.
func (s *ReminderScheduler) PruneOrphans(ctx context.Context, known map[string]struct{}) (int, error) {
	scheduled, err := s.platform.ListScheduled(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: list: %w", customError.ErrNotificationPlatform, err)
	}

	pruned := 0
	var errs []error
	for _, r := range scheduled {
		if _, ok := known[r.Payload.ClientID]; ok {
			continue
		}
		if err := s.platform.Cancel(ctx, r.Identifier); err != nil {
			errs = append(errs, fmt.Errorf("%w: cancel %s: %w", customError.ErrNotificationPlatform, r.Identifier, err))
			continue
		}
		s.logger.Info("cancelled orphaned reminder",
			zap.String("clientId", r.Payload.ClientID),
			zap.String("identifier", r.Identifier),
		)
		pruned++
	}
	return pruned, errors.Join(errs...)
}

// RequestPermission asks the platform whether reminders can be delivered.
func (s *ReminderScheduler) RequestPermission(ctx context.Context) (bool, error) {
	granted, err := s.platform.RequestPermission(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: permission: %w", customError.ErrNotificationPlatform, err)
	}
	return granted, nil
}
