package product

import (
	"context"

	"github.com/google/uuid"

	"appaccounts/internal/audit"
	"appaccounts/internal/lifecycle"
	"appaccounts/pkg/sanitize"
)

// Service exposes product operations backed by the lifecycle engine.
type Service struct {
	engine *lifecycle.Engine[Product]
}

func NewService(store lifecycle.Store[Product], gate lifecycle.PermissionChecker, recorder audit.Recorder, scopes lifecycle.ScopeResolver, opts ...lifecycle.Option[Product]) *Service {
	return &Service{
		engine: lifecycle.NewEngine(Descriptor(), store, gate, recorder, scopes, opts...),
	}
}

type CreateInput struct {
	AppAccountID uuid.UUID
	ProductName  string
	Category     string
	Note         string
	ImagePath    string
	Status       lifecycle.Status
}

// UpdateInput is a partial update; a nil Note resets to empty.
type UpdateInput struct {
	ProductName *string
	Category    *string
	Note        *string
}

func (s *Service) Create(ctx context.Context, input CreateInput, actor lifecycle.Actor) (*Product, error) {
	category := sanitize.String(input.Category)
	if category == "" {
		category = DefaultCategory
	}
	draft := &Product{
		AppAccountID: input.AppAccountID,
		ProductName:  sanitize.String(input.ProductName),
		Category:     category,
		Note:         sanitize.String(input.Note),
		ImagePath:    input.ImagePath,
		Status:       input.Status,
	}
	return s.engine.Create(ctx, draft, actor)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput, actor lifecycle.Actor) (*Product, error) {
	return s.engine.Update(ctx, id, actor, func(p *Product) error {
		if input.ProductName != nil {
			p.ProductName = sanitize.String(*input.ProductName)
		}
		if input.Category != nil {
			p.Category = sanitize.String(*input.Category)
		}
		if input.Note == nil {
			p.Note = ""
		} else {
			p.Note = sanitize.String(*input.Note)
		}
		return nil
	})
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status lifecycle.Status, actor lifecycle.Actor) (*Product, error) {
	return s.engine.UpdateStatus(ctx, id, status, actor)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) (*Product, error) {
	return s.engine.SoftDelete(ctx, id, actor)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.engine.GetByID(ctx, id)
}

func (s *Service) RecentChanges(ctx context.Context, id uuid.UUID) ([]audit.Entry, error) {
	return s.engine.RecentChanges(ctx, id)
}

func (s *Service) Page(ctx context.Context, req lifecycle.PageRequest) ([]*Product, error) {
	return s.engine.Page(ctx, req)
}
