// Package product is the product catalog entry an app account sells.
// Same lifecycle semantics as service types, different shape.
package product

import (
	"time"

	"github.com/google/uuid"

	"appaccounts/internal/diff"
	"appaccounts/internal/lifecycle"
	"appaccounts/internal/permission"
)

const EntityType = "appAccountProduct"

const DefaultCategory = "General"

// Product is one catalog entry, unique by ProductName per account among
// non-deleted rows.
type Product struct {
	ID              uuid.UUID
	AdminAppID      uuid.UUID
	AdminCustomerID uuid.UUID
	AppAccountID    uuid.UUID
	ProductName     string
	Category        string
	Note            string
	ImagePath       string
	Status          lifecycle.Status
	lifecycle.Stamped
}

// Descriptor adapts Product to the lifecycle engine.
func Descriptor() lifecycle.Descriptor[Product] {
	return lifecycle.Descriptor[Product]{
		EntityType:   EntityType,
		Noun:         "product",
		KeyName:      "productName",
		AllowedRoles: permission.AdminRoles,

		ID:          func(p *Product) uuid.UUID { return p.ID },
		SetID:       func(p *Product, id uuid.UUID) { p.ID = id },
		ScopeID:     func(p *Product) uuid.UUID { return p.AppAccountID },
		BusinessKey: func(p *Product) string { return p.ProductName },
		Status:      func(p *Product) lifecycle.Status { return p.Status },
		SetStatus:   func(p *Product, s lifecycle.Status) { p.Status = s },
		Deleted:     func(p *Product) bool { return p.IsDeleted },
		SetDeleted:  func(p *Product, d bool) { p.IsDeleted = d },
		UpdatedAt:   func(p *Product) time.Time { return p.UpdatedAt },

		Stamp: func(p *Product, actor lifecycle.Actor, at time.Time) {
			p.ActionByID = actor.ID
			p.ActionByName = actor.Name
			p.UpdatedAt = at
		},
		SetCreated: func(p *Product, at time.Time) { p.CreatedAt = at },
		AttachScope: func(p *Product, s lifecycle.Scope) {
			p.AppAccountID = s.ID
			p.AdminAppID = s.AdminAppID
			p.AdminCustomerID = s.AdminCustomerID
		},
		Snapshot: func(p *Product) []diff.Field {
			return []diff.Field{
				{Name: "id", Value: p.ID.String()},
				{Name: "productName", Value: p.ProductName},
				{Name: "category", Value: p.Category},
				{Name: "note", Value: p.Note},
				{Name: "imagePath", Value: p.ImagePath},
				{Name: "status", Value: string(p.Status)},
				{Name: "actionById", Value: p.ActionByID.String()},
				{Name: "actionByName", Value: p.ActionByName},
				{Name: "createdAt", Value: p.CreatedAt},
				{Name: "updatedAt", Value: p.UpdatedAt},
				{Name: "isDeleted", Value: p.IsDeleted},
			}
		},
		Overwrite: func(dst, draft *Product) {
			dst.ProductName = draft.ProductName
			dst.Category = draft.Category
			dst.Note = draft.Note
			dst.ImagePath = draft.ImagePath
		},
	}
}
