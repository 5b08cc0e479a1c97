package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/yonaslemma/gursha-backend/pkg/db/models"
)

// CreateProductRequest lists a new product.
type CreateProductRequest struct {
	StoreID        uuid.UUID  `json:"store_id" validate:"required"`
	CategoryID     *uuid.UUID `json:"category_id,omitempty"`
	Name           string     `json:"name" validate:"required"`
	Description    *string    `json:"description,omitempty"`
	PriceCents     int        `json:"price_cents" validate:"required,min=1"`
	SalePriceCents *int       `json:"sale_price_cents,omitempty"`
	OnSale         bool       `json:"on_sale"`
	Stock          int        `json:"stock" validate:"min=0"`
	Unit           string     `json:"unit,omitempty"`
	ImageURL       *string    `json:"image_url,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
}

// UpdateProductRequest carries a partial product update.
type UpdateProductRequest struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	PriceCents     *int    `json:"price_cents,omitempty"`
	SalePriceCents *int    `json:"sale_price_cents,omitempty"`
	OnSale         *bool   `json:"on_sale,omitempty"`
	Stock          *int    `json:"stock,omitempty"`
	ImageURL       *string `json:"image_url,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

// View is the wire shape of a product.
type View struct {
	ID                  uuid.UUID  `json:"id"`
	StoreID             uuid.UUID  `json:"store_id"`
	CategoryID          *uuid.UUID `json:"category_id,omitempty"`
	Name                string     `json:"name"`
	Description         *string    `json:"description,omitempty"`
	PriceCents          int        `json:"price_cents"`
	SalePriceCents      *int       `json:"sale_price_cents,omitempty"`
	OnSale              bool       `json:"on_sale"`
	EffectivePriceCents int        `json:"effective_price_cents"`
	Stock               int        `json:"stock"`
	Unit                string     `json:"unit"`
	ImageURL            *string    `json:"image_url,omitempty"`
	Tags                []string   `json:"tags,omitempty"`
	IsActive            bool       `json:"is_active"`
	CreatedAt           time.Time  `json:"created_at"`
}

// ListView is a page of products.
type ListView struct {
	Products []View `json:"products"`
	Meta     any    `json:"meta"`
}

func newProductView(product *models.Product) *View {
	if product == nil {
		return nil
	}
	return &View{
		ID:                  product.ID,
		StoreID:             product.StoreID,
		CategoryID:          product.CategoryID,
		Name:                product.Name,
		Description:         product.Description,
		PriceCents:          product.PriceCents,
		SalePriceCents:      product.SalePriceCents,
		OnSale:              product.OnSale,
		EffectivePriceCents: product.EffectivePriceCents(),
		Stock:               product.Stock,
		Unit:                string(product.Unit),
		ImageURL:            product.ImageURL,
		Tags:                product.Tags,
		IsActive:            product.IsActive,
		CreatedAt:           product.CreatedAt,
	}
}

func newProductViews(rows []models.Product) []View {
	views := make([]View, 0, len(rows))
	for i := range rows {
		views = append(views, *newProductView(&rows[i]))
	}
	return views
}
