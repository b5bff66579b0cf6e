package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/segyhp/client-followup/internal/domain"
	customError "github.com/segyhp/client-followup/pkg/errors"
	"github.com/segyhp/client-followup/pkg/response"
)

// ClientService is the follow-up tracker as seen by the HTTP layer.
type ClientService interface {
	CreateClient(ctx context.Context, req *domain.ClientRequest) (*domain.SaveResult, error)
	UpdateClient(ctx context.Context, id string, req *domain.ClientRequest) (*domain.SaveResult, error)
	DeleteClient(ctx context.Context, id string) (*domain.DeleteResult, error)
	SetCompleted(ctx context.Context, id string, completed bool) (bool, error)
	GetClient(ctx context.Context, id string) (*domain.ClientView, error)
	ListClients(ctx context.Context, query domain.ListQuery) ([]*domain.ClientView, error)
	GetReminder(ctx context.Context, id string) (*domain.ReminderInfo, error)
	DueToday(ctx context.Context) ([]*domain.ClientView, error)
	Overdue(ctx context.Context) ([]*domain.ClientView, error)
	Upcoming(ctx context.Context, limit int) ([]*domain.ClientView, error)
	ByDay(ctx context.Context, day string) ([]*domain.ClientView, error)
	Dashboard(ctx context.Context) (*domain.Dashboard, error)
	RequestNotificationPermission(ctx context.Context) (bool, error)
}

type ClientHandler struct {
	service   ClientService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewClientHandler(service ClientService, logger *zap.Logger) *ClientHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientHandler{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// RegisterRoutes mounts the client and follow-up endpoints on r.
func (h *ClientHandler) RegisterRoutes(r *mux.Router) {
	clients := r.PathPrefix("/clients").Subrouter()
	clients.HandleFunc("", h.CreateClient).Methods(http.MethodPost)
	clients.HandleFunc("", h.ListClients).Methods(http.MethodGet)
	clients.HandleFunc("/{clientId}", h.GetClient).Methods(http.MethodGet)
	clients.HandleFunc("/{clientId}", h.UpdateClient).Methods(http.MethodPut)
	clients.HandleFunc("/{clientId}", h.DeleteClient).Methods(http.MethodDelete)
	clients.HandleFunc("/{clientId}/completed", h.SetCompleted).Methods(http.MethodPatch)
	clients.HandleFunc("/{clientId}/reminder", h.GetReminder).Methods(http.MethodGet)

	followups := r.PathPrefix("/followups").Subrouter()
	followups.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)
	followups.HandleFunc("/today", h.DueToday).Methods(http.MethodGet)
	followups.HandleFunc("/overdue", h.Overdue).Methods(http.MethodGet)
	followups.HandleFunc("/upcoming", h.Upcoming).Methods(http.MethodGet)
	followups.HandleFunc("/day/{day}", h.ByDay).Methods(http.MethodGet)

	r.HandleFunc("/notifications/permission", h.RequestPermission).Methods(http.MethodPost)
}

func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req domain.ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	result, err := h.service.CreateClient(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeSaveResult(w, http.StatusCreated, result)
}

func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["clientId"]

	var req domain.ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	result, err := h.service.UpdateClient(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeSaveResult(w, http.StatusOK, result)
}

func writeSaveResult(w http.ResponseWriter, status int, result *domain.SaveResult) {
	if result.ReminderWarning != nil {
		response.WithWarning(w, status, result.Client, result.ReminderWarning.Error())
		return
	}
	if status == http.StatusCreated {
		response.Created(w, result.Client)
		return
	}
	response.Success(w, result.Client)
}

func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.DeleteClient(r.Context(), mux.Vars(r)["clientId"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	if result.ReminderWarning != nil {
		response.WithWarning(w, http.StatusOK, result, result.ReminderWarning.Error())
		return
	}
	response.Success(w, result)
}

func (h *ClientHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["clientId"]

	var req domain.SetCompletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	ok, err := h.service.SetCompleted(r.Context(), id, *req.Completed)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		h.writeError(w, customError.WrapClientNotFound(id))
		return
	}

	response.Success(w, map[string]interface{}{
		"clientId":          id,
		"followUpCompleted": *req.Completed,
	})
}

func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetClient(r.Context(), mux.Vars(r)["clientId"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, view)
}

func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	query := domain.ListQuery{
		Filter: r.URL.Query().Get("filter"),
		Search: r.URL.Query().Get("q"),
	}

	views, err := h.service.ListClients(r.Context(), query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, views)
}

func (h *ClientHandler) GetReminder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["clientId"]

	info, err := h.service.GetReminder(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if info == nil {
		response.NotFound(w, "No reminder scheduled for client "+id)
		return
	}
	response.Success(w, info)
}

func (h *ClientHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, dashboard)
}

func (h *ClientHandler) DueToday(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.DueToday(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, views)
}

func (h *ClientHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.Overdue(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, views)
}

func (h *ClientHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.BadRequest(w, "limit must be a positive integer", err)
			return
		}
		limit = parsed
	}

	views, err := h.service.Upcoming(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, views)
}

func (h *ClientHandler) ByDay(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ByDay(r.Context(), mux.Vars(r)["day"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, views)
}

func (h *ClientHandler) RequestPermission(w http.ResponseWriter, r *http.Request) {
	granted, err := h.service.RequestNotificationPermission(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Success(w, map[string]bool{"granted": granted})
}

// writeError maps business errors onto HTTP statuses.
func (h *ClientHandler) writeError(w http.ResponseWriter, err error) {
	var verr *customError.ValidationError
	if errors.As(err, &verr) {
		response.CodedError(w, http.StatusBadRequest, verr.Code, verr.Message, verr.Fields)
		return
	}

	var be *customError.BusinessError
	if !errors.As(err, &be) {
		h.logger.Error("unhandled service error", zap.Error(err))
		response.InternalServerError(w, "Internal server error", err)
		return
	}

	switch be.Code {
	case customError.ErrCodeClientNotFound:
		response.CodedError(w, http.StatusNotFound, be.Code, be.Message, nil)
	case customError.ErrCodeInvalidFollowUpDate:
		response.CodedError(w, http.StatusBadRequest, be.Code, be.Message, nil)
	case customError.ErrCodeReminderError:
		response.CodedError(w, http.StatusBadGateway, be.Code, be.Message, nil)
	default:
		h.logger.Error("request failed", zap.String("code", be.Code), zap.Error(err))
		response.CodedError(w, http.StatusInternalServerError, be.Code, be.Message, nil)
	}
}
