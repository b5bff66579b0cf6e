package service

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/segyhp/client-followup/internal/domain"
	"github.com/segyhp/client-followup/pkg/utils"
)

const DefaultUpcomingLimit = 7

// Classifier partitions clients by follow-up day relative to a reference instant.
// It never fails: records with unparseable dates are logged and left out.
type Classifier struct {
	loc    *time.Location
	logger *zap.Logger
}

func NewClassifier(loc *time.Location, logger *zap.Logger) *Classifier {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{loc: loc, logger: logger}
}

// Partitions is the full classification of a client collection.
type Partitions struct {
	Overdue  []*domain.Client
	DueToday []*domain.Client
	Upcoming []*domain.Client
	NoDate   []*domain.Client
	Invalid  []*domain.Client
}

type datedClient struct {
	client *domain.Client
	day    string
	at     time.Time
}

// followUp resolves the day key and instant of a client's follow-up date.
// ok is false when the client has no date or the date cannot be parsed.
func (c *Classifier) followUp(client *domain.Client) (datedClient, bool) {
	if client == nil || !client.HasFollowUp() {
		return datedClient{}, false
	}

	at, err := utils.ParseStored(*client.FollowUpDate)
	if err == nil {
		var day string
		day, err = utils.DayStringFromStored(*client.FollowUpDate, c.loc)
		if err == nil {
			return datedClient{client: client, day: day, at: at}, true
		}
	}

	c.logger.Warn("excluding client with unparseable follow-up date",
		zap.String("event", "data_quality"),
		zap.String("clientId", client.ID),
		zap.String("followUpDate", *client.FollowUpDate),
		zap.Error(err),
	)
	return datedClient{}, false
}

// Status classifies a single client relative to now.
func (c *Classifier) Status(client *domain.Client, now time.Time) domain.FollowUpStatus {
	if client == nil || !client.HasFollowUp() {
		return domain.FollowUpNone
	}
	fu, ok := c.followUp(client)
	if !ok {
		return domain.FollowUpInvalid
	}
	return statusOf(fu.day, utils.LocalDayString(now, c.loc))
}

func statusOf(day, today string) domain.FollowUpStatus {
	switch {
	case day < today:
		return domain.FollowUpOverdue
	case day == today:
		return domain.FollowUpToday
	default:
		return domain.FollowUpUpcoming
	}
}

// Partition splits records into the overdue, today and upcoming groups.
// Overdue is most recent first, upcoming soonest first; neither is truncated.
func (c *Classifier) Partition(records []*domain.Client, now time.Time) Partitions {
	today := utils.LocalDayString(now, c.loc)

	var p Partitions
	var overdue, upcoming []datedClient

	for _, r := range records {
		if r == nil {
			continue
		}
		if !r.HasFollowUp() {
			p.NoDate = append(p.NoDate, r)
			continue
		}
		fu, ok := c.followUp(r)
		if !ok {
			p.Invalid = append(p.Invalid, r)
			continue
		}
		switch statusOf(fu.day, today) {
		case domain.FollowUpOverdue:
			overdue = append(overdue, fu)
		case domain.FollowUpToday:
			p.DueToday = append(p.DueToday, r)
		default:
			upcoming = append(upcoming, fu)
		}
	}

	sort.SliceStable(overdue, func(i, j int) bool { return overdue[i].at.After(overdue[j].at) })
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].at.Before(upcoming[j].at) })

	p.Overdue = clientsOf(overdue)
	p.Upcoming = clientsOf(upcoming)
	return p
}

// DueToday returns records whose follow-up falls on now's local day, in input order.
func (c *Classifier) DueToday(records []*domain.Client, now time.Time) []*domain.Client {
	return c.Partition(records, now).DueToday
}

// Overdue returns records whose follow-up day is before today, most recent first.
func (c *Classifier) Overdue(records []*domain.Client, now time.Time) []*domain.Client {
	return c.Partition(records, now).Overdue
}

// Upcoming returns records after today, soonest first, at most limit of them.
// A non-positive limit means DefaultUpcomingLimit.
func (c *Classifier) Upcoming(records []*domain.Client, now time.Time, limit int) []*domain.Client {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	upcoming := c.Partition(records, now).Upcoming
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// ByExactDay returns records whose follow-up day key equals day.
func (c *Classifier) ByExactDay(records []*domain.Client, day string) []*domain.Client {
	out := make([]*domain.Client, 0)
	for _, r := range records {
		fu, ok := c.followUp(r)
		if ok && fu.day == day {
			out = append(out, r)
		}
	}
	return out
}

// FollowUpDay returns the day key of a client's follow-up, or "" when unknown.
func (c *Classifier) FollowUpDay(client *domain.Client) string {
	fu, ok := c.followUp(client)
	if !ok {
		return ""
	}
	return fu.day
}

func clientsOf(dated []datedClient) []*domain.Client {
	out := make([]*domain.Client, 0, len(dated))
	for _, d := range dated {
		out = append(out, d.client)
	}
	return out
}
