package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/types"
)

// CreateStoreRequest registers a new store.
type CreateStoreRequest struct {
	Name                    string         `json:"name" validate:"required"`
	Slug                    string         `json:"slug" validate:"required"`
	Description             *string        `json:"description,omitempty"`
	Phone                   *string        `json:"phone,omitempty"`
	Email                   *string        `json:"email,omitempty" validate:"omitempty,email"`
	Address                 *types.Address `json:"address,omitempty"`
	LogoURL                 *string        `json:"logo_url,omitempty"`
	Tags                    []string       `json:"tags,omitempty"`
	DefaultDeliveryFeeCents int            `json:"default_delivery_fee_cents" validate:"min=0"`
	DefaultServiceFeeCents  int            `json:"default_service_fee_cents" validate:"min=0"`
	MinOrderCents           int            `json:"min_order_cents" validate:"min=0"`
}

// View is the wire shape of a store.
type View struct {
	ID                      uuid.UUID      `json:"id"`
	Name                    string         `json:"name"`
	Slug                    string         `json:"slug"`
	Description             *string        `json:"description,omitempty"`
	Phone                   *string        `json:"phone,omitempty"`
	Email                   *string        `json:"email,omitempty"`
	Address                 *types.Address `json:"address,omitempty"`
	LogoURL                 *string        `json:"logo_url,omitempty"`
	Tags                    []string       `json:"tags,omitempty"`
	DefaultDeliveryFeeCents int            `json:"default_delivery_fee_cents"`
	DefaultServiceFeeCents  int            `json:"default_service_fee_cents"`
	MinOrderCents           int            `json:"min_order_cents"`
	IsActive                bool           `json:"is_active"`
	CreatedAt               time.Time      `json:"created_at"`
}

// ListView is a page of stores.
type ListView struct {
	Stores []View `json:"stores"`
	Meta   any    `json:"meta"`
}

func newStoreView(store *models.Store) *View {
	if store == nil {
		return nil
	}
	return &View{
		ID:                      store.ID,
		Name:                    store.Name,
		Slug:                    store.Slug,
		Description:             store.Description,
		Phone:                   store.Phone,
		Email:                   store.Email,
		Address:                 store.Address,
		LogoURL:                 store.LogoURL,
		Tags:                    store.Tags,
		DefaultDeliveryFeeCents: store.DefaultDeliveryFeeCents,
		DefaultServiceFeeCents:  store.DefaultServiceFeeCents,
		MinOrderCents:           store.MinOrderCents,
		IsActive:                store.IsActive,
		CreatedAt:               store.CreatedAt,
	}
}

func newStoreViews(rows []models.Store) []View {
	views := make([]View, 0, len(rows))
	for i := range rows {
		views = append(views, *newStoreView(&rows[i]))
	}
	return views
}
