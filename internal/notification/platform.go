package notification

import (
	"context"
	"time"

	"github.com/segyhp/client-followup/internal/domain"
)

// Platform is the local-notification system reminders are scheduled on.
// It does not index by client; callers scan ListScheduled.
type Platform interface {
	// Schedule registers a one-shot notification and returns its platform identifier
	Schedule(ctx context.Context, triggerAt time.Time, payload domain.ReminderPayload) (string, error)

	// Cancel removes a scheduled notification; unknown identifiers are a no-op
	Cancel(ctx context.Context, identifier string) error

	// ListScheduled returns every pending notification
	ListScheduled(ctx context.Context) ([]domain.ScheduledReminder, error)

	// RequestPermission reports whether notifications may be delivered
	RequestPermission(ctx context.Context) (bool, error)
}
