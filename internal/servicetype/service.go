package servicetype

import (
	"context"

	"github.com/google/uuid"

	"appaccounts/internal/audit"
	"appaccounts/internal/lifecycle"
	"appaccounts/pkg/sanitize"
)

// Service exposes service-type operations backed by the lifecycle engine.
// It owns input sanitization and defaults; everything else is engine
// behavior.
type Service struct {
	engine *lifecycle.Engine[ServiceType]
}

func NewService(store lifecycle.Store[ServiceType], gate lifecycle.PermissionChecker, recorder audit.Recorder, scopes lifecycle.ScopeResolver, opts ...lifecycle.Option[ServiceType]) *Service {
	return &Service{
		engine: lifecycle.NewEngine(Descriptor(), store, gate, recorder, scopes, opts...),
	}
}

// CreateInput is the payload for service-type creation. Category defaults
// to "General"; ImagePath is stored as-is, it is a path, not display text.
type CreateInput struct {
	AppAccountID uuid.UUID
	TypeName     string
	Category     string
	Note         string
	ImagePath    string
	Status       lifecycle.Status
}

// UpdateInput is a partial update. Nil TypeName and Category keep the
// stored value; a nil Note resets to empty, matching the catalog's
// note-is-always-sent contract.
type UpdateInput struct {
	TypeName *string
	Category *string
	Note     *string
}

func (s *Service) Create(ctx context.Context, input CreateInput, actor lifecycle.Actor) (*ServiceType, error) {
	category := sanitize.String(input.Category)
	if category == "" {
		category = DefaultCategory
	}
	draft := &ServiceType{
		AppAccountID: input.AppAccountID,
		TypeName:     sanitize.String(input.TypeName),
		Category:     category,
		Note:         sanitize.String(input.Note),
		ImagePath:    input.ImagePath,
		Status:       input.Status,
	}
	return s.engine.Create(ctx, draft, actor)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput, actor lifecycle.Actor) (*ServiceType, error) {
	return s.engine.Update(ctx, id, actor, func(t *ServiceType) error {
		if input.TypeName != nil {
			t.TypeName = sanitize.String(*input.TypeName)
		}
		if input.Category != nil {
			t.Category = sanitize.String(*input.Category)
		}
		if input.Note == nil {
			t.Note = ""
		} else {
			t.Note = sanitize.String(*input.Note)
		}
		return nil
	})
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status lifecycle.Status, actor lifecycle.Actor) (*ServiceType, error) {
	return s.engine.UpdateStatus(ctx, id, status, actor)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) (*ServiceType, error) {
	return s.engine.SoftDelete(ctx, id, actor)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*ServiceType, error) {
	return s.engine.GetByID(ctx, id)
}

func (s *Service) RecentChanges(ctx context.Context, id uuid.UUID) ([]audit.Entry, error) {
	return s.engine.RecentChanges(ctx, id)
}

func (s *Service) Page(ctx context.Context, req lifecycle.PageRequest) ([]*ServiceType, error) {
	return s.engine.Page(ctx, req)
}
