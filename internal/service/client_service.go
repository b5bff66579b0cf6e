package service

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/client-followup/internal/domain"
	"github.com/segyhp/client-followup/internal/repository"
	customError "github.com/segyhp/client-followup/pkg/errors"
	"github.com/segyhp/client-followup/pkg/utils"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

var fieldMessages = map[string]string{
	"nameOfCustomer.required": "Name of Customer is required",
	"contactNumber.required":  "Contact Number is required",
	"contactNumber.phone10":   "Contact Number must be 10 digits",
	"loginBankName.required":  "Bank Name is required",
}

// Settings tunes a ClientService.
type Settings struct {
	Location       *time.Location
	UpcomingLimit  int
	DashboardLimit int
	Now            func() time.Time
	NewID          func() string
}

type ClientService struct {
	repo       repository.ClientRepository
	reminders  *ReminderScheduler
	classifier *Classifier
	validate   *validator.Validate
	logger     *zap.Logger
	settings   Settings
}

func NewClientService(
	repo repository.ClientRepository,
	reminders *ReminderScheduler,
	classifier *Classifier,
	settings Settings,
	logger *zap.Logger,
) *ClientService {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if settings.UpcomingLimit <= 0 {
		settings.UpcomingLimit = DefaultUpcomingLimit
	}
	if settings.DashboardLimit <= 0 {
		settings.DashboardLimit = 3
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if settings.NewID == nil {
		settings.NewID = uuid.NewString
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ClientService{
		repo:       repo,
		reminders:  reminders,
		classifier: classifier,
		validate:   newValidator(),
		logger:     logger,
		settings:   settings,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// normalizeRequest trims the request, validates it and resolves the stored
// follow-up date. Nothing is persisted when it fails.
func (s *ClientService) normalizeRequest(req *domain.ClientRequest) (*string, error) {
	req.NameOfCustomer = strings.TrimSpace(req.NameOfCustomer)
	req.NameOfCoApplicant = strings.TrimSpace(req.NameOfCoApplicant)
	req.ContactNumber = strings.TrimSpace(req.ContactNumber)
	req.Referral = strings.TrimSpace(req.Referral)
	req.RequiredLoanAmount = strings.TrimSpace(req.RequiredLoanAmount)
	req.SecurityInformation = strings.TrimSpace(req.SecurityInformation)
	req.LoginBankName = strings.TrimSpace(req.LoginBankName)

	fields := make(map[string]string)

	if err := s.validate.Struct(req); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, err
		}
		for _, fe := range validationErrors {
			msg, known := fieldMessages[fe.Field()+"."+fe.Tag()]
			if !known {
				msg = fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
			}
			fields[fe.Field()] = msg
		}
	}

	var followUp *string
	if req.FollowUpDate != nil && strings.TrimSpace(*req.FollowUpDate) != "" {
		t, err := utils.ParseFollowUpInput(*req.FollowUpDate, s.settings.Location)
		if err != nil {
			fields["followUpDate"] = customError.WrapInvalidFollowUpDate(*req.FollowUpDate).Message
		} else {
			stored := utils.NormalizeForStorage(t, s.settings.Location)
			followUp = &stored
		}
	}

	if len(fields) > 0 {
		return nil, customError.WrapValidation(fields)
	}
	return followUp, nil
}

// CreateClient validates and stores a new client, then schedules its reminder.
func (s *ClientService) CreateClient(ctx context.Context, req *domain.ClientRequest) (*domain.SaveResult, error) {
	followUp, err := s.normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	now := s.settings.Now()
	client := &domain.Client{
		ID:                  s.settings.NewID(),
		NameOfCustomer:      req.NameOfCustomer,
		NameOfCoApplicant:   req.NameOfCoApplicant,
		ContactNumber:       req.ContactNumber,
		Referral:            req.Referral,
		RequiredLoanAmount:  req.RequiredLoanAmount,
		SecurityInformation: req.SecurityInformation,
		LoginBankName:       req.LoginBankName,
		FollowUpDate:        followUp,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	return s.save(ctx, client)
}

// UpdateClient applies an edit to an existing client. Completion state and
// creation time are kept.
func (s *ClientService) UpdateClient(ctx context.Context, id string, req *domain.ClientRequest) (*domain.SaveResult, error) {
	followUp, err := s.normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	if existing == nil {
		return nil, customError.WrapClientNotFound(id)
	}

	updated := *existing
	updated.NameOfCustomer = req.NameOfCustomer
	updated.NameOfCoApplicant = req.NameOfCoApplicant
	updated.ContactNumber = req.ContactNumber
	updated.Referral = req.Referral
	updated.RequiredLoanAmount = req.RequiredLoanAmount
	updated.SecurityInformation = req.SecurityInformation
	updated.LoginBankName = req.LoginBankName
	updated.FollowUpDate = followUp

	return s.save(ctx, &updated)
}

// save persists first, then reconciles the reminder. A reconciliation
// failure is reported on the result and never fails the save.
func (s *ClientService) save(ctx context.Context, client *domain.Client) (*domain.SaveResult, error) {
	saved, err := s.repo.Save(ctx, client)
	if err != nil {
		s.logger.Error("failed to save client", zap.String("clientId", client.ID), zap.Error(err))
		return nil, customError.WrapStorageError(err)
	}

	result := &domain.SaveResult{Client: saved}

	if _, err := s.reminders.Reconcile(ctx, saved); err != nil {
		s.logger.Warn("follow-up reminder not reconciled",
			zap.String("clientId", saved.ID),
			zap.Error(err),
		)
		result.ReminderWarning = customError.WrapReminderError(saved.ID, err)
	}

	return result, nil
}

// DeleteClient cancels the client's reminder and then removes the record.
func (s *ClientService) DeleteClient(ctx context.Context, id string) (*domain.DeleteResult, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	if existing == nil {
		return nil, customError.WrapClientNotFound(id)
	}

	result := &domain.DeleteResult{ClientID: id}

	if err := s.reminders.Cancel(ctx, id); err != nil {
		s.logger.Warn("follow-up reminder not cancelled before delete",
			zap.String("clientId", id),
			zap.Error(err),
		)
		result.ReminderWarning = customError.WrapReminderError(id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete client", zap.String("clientId", id), zap.Error(err))
		return nil, customError.WrapStorageError(err)
	}

	return result, nil
}

// SetCompleted marks a follow-up done or not done. It reports false when the
// client does not exist and leaves any scheduled reminder in place.
func (s *ClientService) SetCompleted(ctx context.Context, id string, completed bool) (bool, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, customError.WrapStorageError(err)
	}
	if existing == nil {
		return false, nil
	}

	updated := *existing
	updated.FollowUpCompleted = completed
	updated.UpdatedAt = s.settings.Now()

	if _, err := s.repo.Save(ctx, &updated); err != nil {
		return false, customError.WrapStorageError(err)
	}
	return true, nil
}

func (s *ClientService) GetClient(ctx context.Context, id string) (*domain.ClientView, error) {
	client, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	if client == nil {
		return nil, customError.WrapClientNotFound(id)
	}
	return s.view(client, s.settings.Now()), nil
}

// ListClients applies the search query and then the follow-up filter.
func (s *ClientService) ListClients(ctx context.Context, query domain.ListQuery) ([]*domain.ClientView, error) {
	clients, err := s.repo.Search(ctx, query.Search)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}

	now := s.settings.Now()
	switch query.Filter {
	case "", domain.FilterAll:
	case domain.FilterToday:
		clients = s.classifier.DueToday(clients, now)
	case domain.FilterUpcoming:
		clients = s.classifier.Partition(clients, now).Upcoming
	case domain.FilterOverdue:
		clients = s.classifier.Overdue(clients, now)
	default:
		return nil, customError.WrapValidation(map[string]string{
			"filter": fmt.Sprintf("unknown filter %q", query.Filter),
		})
	}

	return s.views(clients, now), nil
}

func (s *ClientService) DueToday(ctx context.Context) ([]*domain.ClientView, error) {
	clients, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	now := s.settings.Now()
	return s.views(s.classifier.DueToday(clients, now), now), nil
}

func (s *ClientService) Overdue(ctx context.Context) ([]*domain.ClientView, error) {
	clients, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	now := s.settings.Now()
	return s.views(s.classifier.Overdue(clients, now), now), nil
}

// Upcoming returns the next follow-ups after today. A non-positive limit uses the configured default.
func (s *ClientService) Upcoming(ctx context.Context, limit int) ([]*domain.ClientView, error) {
	if limit <= 0 {
		limit = s.settings.UpcomingLimit
	}
	clients, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	now := s.settings.Now()
	return s.views(s.classifier.Upcoming(clients, now, limit), now), nil
}

// ByDay returns the clients whose follow-up falls on day (YYYY-MM-DD).
func (s *ClientService) ByDay(ctx context.Context, day string) ([]*domain.ClientView, error) {
	if _, err := utils.ParseDay(day, s.settings.Location); err != nil {
		return nil, customError.WrapValidation(map[string]string{"day": "day must be YYYY-MM-DD"})
	}
	clients, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	return s.views(s.classifier.ByExactDay(clients, day), s.settings.Now()), nil
}

func (s *ClientService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	clients, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}

	now := s.settings.Now()
	p := s.classifier.Partition(clients, now)

	upcoming := p.Upcoming
	if len(upcoming) > s.settings.DashboardLimit {
		upcoming = upcoming[:s.settings.DashboardLimit]
	}

	pipeline := decimal.Zero
	for _, c := range clients {
		if amount, ok := c.LoanAmount(); ok {
			pipeline = pipeline.Add(amount)
		}
	}

	return &domain.Dashboard{
		TotalClients:        len(clients),
		DueToday:            s.views(p.DueToday, now),
		Overdue:             s.views(p.Overdue, now),
		Upcoming:            s.views(upcoming, now),
		PipelineAmount:      utils.FormatINR(pipeline),
		InvalidFollowUpDays: len(p.Invalid),
	}, nil
}

// GetReminder reports the reminder currently scheduled for a client.
func (s *ClientService) GetReminder(ctx context.Context, id string) (*domain.ReminderInfo, error) {
	client, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	if client == nil {
		return nil, customError.WrapClientNotFound(id)
	}

	info, err := s.reminders.Lookup(ctx, id)
	if err != nil {
		return nil, customError.WrapReminderError(id, err)
	}
	return info, nil
}

func (s *ClientService) RequestNotificationPermission(ctx context.Context) (bool, error) {
	granted, err := s.reminders.RequestPermission(ctx)
	if err != nil {
		s.logger.Warn("notification permission request failed", zap.Error(err))
		return false, nil
	}
	return granted, nil
}

// AuditReminders cancels reminders left behind by clients that no longer exist.
func (s *ClientService) AuditReminders(ctx context.Context) (int, error) {
	clients, err := s.repo.GetAll(ctx)
	if err != nil {
		return 0, customError.WrapStorageError(err)
	}

	known := make(map[string]struct{}, len(clients))
	for _, c := range clients {
		known[c.ID] = struct{}{}
	}

	pruned, err := s.reminders.PruneOrphans(ctx, known)
	if err != nil {
		s.logger.Warn("reminder audit incomplete", zap.Int("pruned", pruned), zap.Error(err))
	}
	return pruned, err
}

// Digest logs the day's follow-up summary.
func (s *ClientService) Digest(ctx context.Context) (*domain.Dashboard, error) {
	dashboard, err := s.Dashboard(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(dashboard.DueToday))
	for _, v := range dashboard.DueToday {
		names = append(names, v.NameOfCustomer)
	}

	s.logger.Info("follow-up digest",
		zap.Int("dueToday", len(dashboard.DueToday)),
		zap.Int("overdue", len(dashboard.Overdue)),
		zap.Strings("customers", names),
	)
	return dashboard, nil
}

func (s *ClientService) view(c *domain.Client, now time.Time) *domain.ClientView {
	v := &domain.ClientView{Client: c, Status: domain.FollowUpNone}

	if c.HasFollowUp() {
		v.Status = s.classifier.Status(c, now)
		if v.Status != domain.FollowUpInvalid {
			v.FollowUpDay = s.classifier.FollowUpDay(c)
			v.Badge = v.Status.Badge()
		}
	}

	if amount, ok := c.LoanAmount(); ok {
		v.LoanAmountFormatted = utils.FormatINR(amount)
	}
	return v
}

func (s *ClientService) views(clients []*domain.Client, now time.Time) []*domain.ClientView {
	out := make([]*domain.ClientView, 0, len(clients))
	for _, c := range clients {
		out = append(out, s.view(c, now))
	}
	return out
}
