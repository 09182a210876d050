// Package servicetype is the service-type catalog entry an app account
// offers work under. It is a lifecycle entity: all mutation semantics come
// from the shared engine, this package contributes the shape, the store,
// and input handling.
package servicetype

import (
	"time"

	"github.com/google/uuid"

	"appaccounts/internal/diff"
	"appaccounts/internal/lifecycle"
	"appaccounts/internal/permission"
)

// EntityType namespaces audit entries and notification topics.
const EntityType = "appAccountServiceType"

// DefaultCategory is applied when a create omits the category.
const DefaultCategory = "General"

// ServiceType is one catalog entry, unique by TypeName per account among
// non-deleted rows.
type ServiceType struct {
	ID              uuid.UUID
	AdminAppID      uuid.UUID
	AdminCustomerID uuid.UUID
	AppAccountID    uuid.UUID
	TypeName        string
	Category        string
	Note            string
	ImagePath       string
	Status          lifecycle.Status
	lifecycle.Stamped
}

// Descriptor adapts ServiceType to the lifecycle engine.
func Descriptor() lifecycle.Descriptor[ServiceType] {
	return lifecycle.Descriptor[ServiceType]{
		EntityType:   EntityType,
		Noun:         "service type",
		KeyName:      "typeName",
		AllowedRoles: permission.AdminRoles,

		ID:          func(t *ServiceType) uuid.UUID { return t.ID },
		SetID:       func(t *ServiceType, id uuid.UUID) { t.ID = id },
		ScopeID:     func(t *ServiceType) uuid.UUID { return t.AppAccountID },
		BusinessKey: func(t *ServiceType) string { return t.TypeName },
		Status:      func(t *ServiceType) lifecycle.Status { return t.Status },
		SetStatus:   func(t *ServiceType, s lifecycle.Status) { t.Status = s },
		Deleted:     func(t *ServiceType) bool { return t.IsDeleted },
		SetDeleted:  func(t *ServiceType, d bool) { t.IsDeleted = d },
		UpdatedAt:   func(t *ServiceType) time.Time { return t.UpdatedAt },

		Stamp: func(t *ServiceType, actor lifecycle.Actor, at time.Time) {
			t.ActionByID = actor.ID
			t.ActionByName = actor.Name
			t.UpdatedAt = at
		},
		SetCreated: func(t *ServiceType, at time.Time) { t.CreatedAt = at },
		AttachScope: func(t *ServiceType, s lifecycle.Scope) {
			t.AppAccountID = s.ID
			t.AdminAppID = s.AdminAppID
			t.AdminCustomerID = s.AdminCustomerID
		},
		Snapshot: func(t *ServiceType) []diff.Field {
			return []diff.Field{
				{Name: "id", Value: t.ID.String()},
				{Name: "typeName", Value: t.TypeName},
				{Name: "category", Value: t.Category},
				{Name: "note", Value: t.Note},
				{Name: "imagePath", Value: t.ImagePath},
				{Name: "status", Value: string(t.Status)},
				{Name: "actionById", Value: t.ActionByID.String()},
				{Name: "actionByName", Value: t.ActionByName},
				{Name: "createdAt", Value: t.CreatedAt},
				{Name: "updatedAt", Value: t.UpdatedAt},
				{Name: "isDeleted", Value: t.IsDeleted},
			}
		},
		Overwrite: func(dst, draft *ServiceType) {
			dst.TypeName = draft.TypeName
			dst.Category = draft.Category
			dst.Note = draft.Note
			dst.ImagePath = draft.ImagePath
		},
	}
}
