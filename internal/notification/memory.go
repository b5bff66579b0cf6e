package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/client-followup/internal/domain"
)

// MemoryPlatform keeps scheduled reminders in process memory.
type MemoryPlatform struct {
	mu        sync.Mutex
	scheduled map[string]domain.ScheduledReminder
	granted   bool
}

func NewMemoryPlatform() *MemoryPlatform {
	return &MemoryPlatform{
		scheduled: make(map[string]domain.ScheduledReminder),
		granted:   true,
	}
}

// SetPermission changes the answer RequestPermission gives.
func (p *MemoryPlatform) SetPermission(granted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted = granted
}

func (p *MemoryPlatform) Schedule(_ context.Context, triggerAt time.Time, payload domain.ReminderPayload) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.NewString()
	p.scheduled[id] = domain.ScheduledReminder{
		Identifier: id,
		TriggerAt:  triggerAt,
		Payload:    payload,
	}
	return id, nil
}

func (p *MemoryPlatform) Cancel(_ context.Context, identifier string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.scheduled, identifier)
	return nil
}

func (p *MemoryPlatform) ListScheduled(context.Context) ([]domain.ScheduledReminder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.ScheduledReminder, 0, len(p.scheduled))
	for _, r := range p.scheduled {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TriggerAt.Equal(out[j].TriggerAt) {
			return out[i].Identifier < out[j].Identifier
		}
		return out[i].TriggerAt.Before(out[j].TriggerAt)
	})
	return out, nil
}

func (p *MemoryPlatform) RequestPermission(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted, nil
}
