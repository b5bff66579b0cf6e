package domain

import "time"

const (
	ReminderTitle        = "Follow-up Reminder"
	ReminderBodyTemplate = "Follow up with %s today"
)

// ReminderPayload is the content attached to a scheduled notification.
type ReminderPayload struct {
	ClientID string `json:"clientId"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// ScheduledReminder is a notification as reported by the platform.
type ScheduledReminder struct {
	Identifier string          `json:"identifier"`
	TriggerAt  time.Time       `json:"triggerAt"`
	Payload    ReminderPayload `json:"payload"`
}

type ReminderInfo struct {
	ClientID   string    `json:"clientId"`
	Identifier string    `json:"identifier"`
	TriggerAt  time.Time `json:"triggerAt"`
}
