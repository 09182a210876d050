// Package handler exposes app account operations over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"appaccounts/internal/account"
	"appaccounts/internal/lifecycle"
	"appaccounts/internal/transport/httpjson"
	dErrors "appaccounts/pkg/domain-errors"
	"appaccounts/pkg/requestcontext"
)

// Service is the slice of the account service the transport needs.
type Service interface {
	Create(ctx context.Context, input account.CreateInput, actor lifecycle.Actor) (*account.AppAccount, error)
	GetByID(ctx context.Context, id uuid.UUID) (*account.AppAccount, error)
	Memberships(ctx context.Context, accountID uuid.UUID) ([]*account.Membership, error)
	Deactivate(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) (*account.AppAccount, error)
	Reactivate(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) (*account.AppAccount, error)
	ProvisionPermissions(ctx context.Context, accountID uuid.UUID) (int, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Get("/{id}/members", h.members)
	r.Post("/{id}/deactivate", h.deactivate)
	r.Post("/{id}/reactivate", h.reactivate)
	r.Post("/{id}/permissions/sync", h.syncPermissions)
	return r
}

type createRequest struct {
	AdminAppID      string `json:"adminAppId"`
	AdminCustomerID string `json:"adminCustomerId"`
	Title           string `json:"title"`
}

type accountResponse struct {
	ID              string `json:"id"`
	AdminAppID      string `json:"adminAppId"`
	AdminCustomerID string `json:"adminCustomerId"`
	Title           string `json:"title"`
	Status          string `json:"status"`
	ActionByID      string `json:"actionById"`
	ActionByName    string `json:"actionByName"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
	IsDeleted       bool   `json:"isDeleted"`
}

type memberResponse struct {
	LoginUserID  string `json:"loginUserId"`
	UserFullName string `json:"userFullName"`
	Role         string `json:"userRole"`
	Status       string `json:"status"`
}

func toResponse(a *account.AppAccount) accountResponse {
	return accountResponse{
		ID:              a.ID.String(),
		AdminAppID:      a.AdminAppID.String(),
		AdminCustomerID: a.AdminCustomerID.String(),
		Title:           a.Title,
		Status:          string(a.Status),
		ActionByID:      a.ActionByID.String(),
		ActionByName:    a.ActionByName,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:       a.UpdatedAt.Format(time.RFC3339Nano),
		IsDeleted:       a.IsDeleted,
	}
}

func actor(ctx context.Context) lifecycle.Actor {
	return lifecycle.Actor{
		ID:   requestcontext.ActorID(ctx),
		Name: requestcontext.ActorName(ctx),
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	adminAppID, err := uuid.Parse(req.AdminAppID)
	if err != nil {
		httpjson.Error(w, r, h.logger, dErrors.New(dErrors.CodeValidation, "adminAppId must be a UUID"))
		return
	}
	adminCustomerID, err := uuid.Parse(req.AdminCustomerID)
	if err != nil {
		httpjson.Error(w, r, h.logger, dErrors.New(dErrors.CodeValidation, "adminCustomerId must be a UUID"))
		return
	}

	created, err := h.service.Create(r.Context(), account.CreateInput{
		AdminAppID:      adminAppID,
		AdminCustomerID: adminCustomerID,
		Title:           req.Title,
	}, actor(r.Context()))
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	httpjson.Respond(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	acct, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, toResponse(acct))
}

func (h *Handler) members(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	members, err := h.service.Memberships(r.Context(), id)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse{
			LoginUserID:  m.LoginUserID.String(),
			UserFullName: m.UserFullName,
			Role:         string(m.Role),
			Status:       string(m.Status),
		})
	}
	httpjson.Respond(w, http.StatusOK, out)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.service.Deactivate)
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.service.Reactivate)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, lifecycle.Actor) (*account.AppAccount, error)) {
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	updated, err := op(r.Context(), id, actor(r.Context()))
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) syncPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	written, err := h.service.ProvisionPermissions(r.Context(), id)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, map[string]int{"grantsWritten": written})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id must be a UUID")
	}
	return id, nil
}
