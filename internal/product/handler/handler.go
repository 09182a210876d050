// Package handler exposes product operations over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"appaccounts/internal/audit"
	"appaccounts/internal/lifecycle"
	"appaccounts/internal/product"
	"appaccounts/internal/transport/httpjson"
	dErrors "appaccounts/pkg/domain-errors"
	"appaccounts/pkg/requestcontext"
)

// Service is the slice of the product service the transport needs.
type Service interface {
	Create(ctx context.Context, input product.CreateInput, actor lifecycle.Actor) (*product.Product, error)
	Update(ctx context.Context, id uuid.UUID, input product.UpdateInput, actor lifecycle.Actor) (*product.Product, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status lifecycle.Status, actor lifecycle.Actor) (*product.Product, error)
	Delete(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) (*product.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
	RecentChanges(ctx context.Context, id uuid.UUID) ([]audit.Entry, error)
	Page(ctx context.Context, req lifecycle.PageRequest) ([]*product.Product, error)
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
	r.Get("/", h.page)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Patch("/{id}/status", h.updateStatus)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/changes", h.changes)
	return r
}

type createRequest struct {
	AppAccountID string `json:"appAccountId"`
	ProductName  string `json:"productName"`
	Category     string `json:"category"`
	Note         string `json:"note"`
	ImagePath    string `json:"imagePath"`
	Status       string `json:"status"`
}

type updateRequest struct {
	ProductName *string `json:"productName"`
	Category    *string `json:"category"`
	Note        *string `json:"note"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type productResponse struct {
	ID              string `json:"id"`
	AdminAppID      string `json:"adminAppId"`
	AdminCustomerID string `json:"adminCustomerId"`
	AppAccountID    string `json:"appAccountId"`
	ProductName     string `json:"productName"`
	Category        string `json:"category"`
	Note            string `json:"note"`
	ImagePath       string `json:"imagePath"`
	Status          string `json:"status"`
	ActionByID      string `json:"actionById"`
	ActionByName    string `json:"actionByName"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
	IsDeleted       bool   `json:"isDeleted"`
}

type changeResponse struct {
	Action    string   `json:"actionType"`
	ActionAt  string   `json:"actionAt"`
	Changes   []string `json:"changeArray"`
	ActorID   string   `json:"actionById"`
	ActorName string   `json:"actionByName"`
}

func toResponse(p *product.Product) productResponse {
	return productResponse{
		ID:              p.ID.String(),
		AdminAppID:      p.AdminAppID.String(),
		AdminCustomerID: p.AdminCustomerID.String(),
		AppAccountID:    p.AppAccountID.String(),
		ProductName:     p.ProductName,
		Category:        p.Category,
		Note:            p.Note,
		ImagePath:       p.ImagePath,
		Status:          string(p.Status),
		ActionByID:      p.ActionByID.String(),
		ActionByName:    p.ActionByName,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339Nano),
		IsDeleted:       p.IsDeleted,
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
	accountID, err := uuid.Parse(req.AppAccountID)
	if err != nil {
		httpjson.Error(w, r, h.logger, dErrors.New(dErrors.CodeValidation, "appAccountId must be a UUID"))
		return
	}

	created, err := h.service.Create(r.Context(), product.CreateInput{
		AppAccountID: accountID,
		ProductName:  req.ProductName,
		Category:     req.Category,
		Note:         req.Note,
		ImagePath:    req.ImagePath,
		Status:       lifecycle.Status(req.Status),
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
	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, toResponse(p))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}

	updated, err := h.service.Update(r.Context(), id, product.UpdateInput{
		ProductName: req.ProductName,
		Category:    req.Category,
		Note:        req.Note,
	}, actor(r.Context()))
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	var req statusRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, lifecycle.Status(req.Status), actor(r.Context()))
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	deleted, err := h.service.Delete(r.Context(), id, actor(r.Context()))
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, toResponse(deleted))
}

func (h *Handler) changes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	entries, err := h.service.RecentChanges(r.Context(), id)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	out := make([]changeResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, changeResponse{
			Action:    string(e.Action),
			ActionAt:  e.ActionAt.Format(time.RFC3339Nano),
			Changes:   e.Changes,
			ActorID:   e.ActorID.String(),
			ActorName: e.ActorName,
		})
	}
	httpjson.Respond(w, http.StatusOK, out)
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var req lifecycle.PageRequest
	if raw := q.Get("appAccountId"); raw != "" {
		scopeID, err := uuid.Parse(raw)
		if err != nil {
			httpjson.Error(w, r, h.logger, dErrors.New(dErrors.CodeValidation, "appAccountId must be a UUID"))
			return
		}
		req.ScopeID = scopeID
	}
	req.Direction = lifecycle.Direction(q.Get("pageType"))
	req.Status = lifecycle.StatusFilter(q.Get("status"))
	req.Search = q.Get("search")

	if raw := q.Get("pageLimit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpjson.Error(w, r, h.logger, dErrors.New(dErrors.CodeValidation, "pageLimit must be an integer"))
			return
		}
		req.Limit = limit
	}
	if raw := q.Get("cursor"); raw != "" {
		cursor, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			httpjson.Error(w, r, h.logger, dErrors.New(dErrors.CodeValidation, "cursor must be an RFC 3339 timestamp"))
			return
		}
		req.Cursor = &cursor
	}

	items, err := h.service.Page(r.Context(), req)
	if err != nil {
		httpjson.Error(w, r, h.logger, err)
		return
	}
	out := make([]productResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toResponse(p))
	}
	httpjson.Respond(w, http.StatusOK, out)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "id must be a UUID")
	}
	return id, nil
}
