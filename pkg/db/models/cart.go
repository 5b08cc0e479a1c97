package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/yonaslemma/gursha-backend/pkg/enums"
)

// Cart is the per-user, per-store staging area for candidate order items.
// At most one active cart exists per (user, store); the partial unique index
// lives in the schema migration.
type Cart struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	StoreID          uuid.UUID        `gorm:"column:store_id;type:uuid;not null;index"`
	Status           enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	SubtotalCents    int              `gorm:"column:subtotal_cents;not null;default:0"`
	TaxCents         int              `gorm:"column:tax_cents;not null;default:0"`
	DeliveryFeeCents int              `gorm:"column:delivery_fee_cents;not null;default:0"`
	ServiceFeeCents  int              `gorm:"column:service_fee_cents;not null;default:0"`
	TipCents         int              `gorm:"column:tip_cents;not null;default:0"`
	TotalCents       int              `gorm:"column:total_cents;not null;default:0"`
	Items            []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
