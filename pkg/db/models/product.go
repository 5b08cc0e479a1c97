package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/yonaslemma/gursha-backend/pkg/enums"
)

// Product is a sellable catalog listing belonging to a store.
type Product struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID        uuid.UUID         `gorm:"column:store_id;type:uuid;not null;index"`
	CategoryID     *uuid.UUID        `gorm:"column:category_id;type:uuid;index"`
	Name           string            `gorm:"column:name;not null"`
	Description    *string           `gorm:"column:description"`
	PriceCents     int               `gorm:"column:price_cents;not null"`
	SalePriceCents *int              `gorm:"column:sale_price_cents"`
	OnSale         bool              `gorm:"column:on_sale;not null;default:false"`
	Stock          int               `gorm:"column:stock;not null;default:0"`
	Unit           enums.ProductUnit `gorm:"column:unit;not null;default:'each'"`
	ImageURL       *string           `gorm:"column:image_url"`
	Tags           pq.StringArray    `gorm:"column:tags;type:text[]"`
	IsActive       bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePriceCents returns the sale price when the product is on sale with
// a positive sale price, otherwise the regular price.
func (p Product) EffectivePriceCents() int {
	if p.OnSale && p.SalePriceCents != nil && *p.SalePriceCents > 0 {
		return *p.SalePriceCents
	}
	return p.PriceCents
}
