package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/yonaslemma/gursha-backend/pkg/types"
)

// Store is a grocery outlet products and carts are scoped to.
type Store struct {
	ID                      uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                    string         `gorm:"column:name;not null"`
	Slug                    string         `gorm:"column:slug;not null;uniqueIndex"`
	Description             *string        `gorm:"column:description"`
	Phone                   *string        `gorm:"column:phone"`
	Email                   *string        `gorm:"column:email"`
	Address                 *types.Address `gorm:"column:address;type:jsonb;serializer:json"`
	LogoURL                 *string        `gorm:"column:logo_url"`
	Tags                    pq.StringArray `gorm:"column:tags;type:text[]"`
	DefaultDeliveryFeeCents int            `gorm:"column:default_delivery_fee_cents;not null;default:0"`
	DefaultServiceFeeCents  int            `gorm:"column:default_service_fee_cents;not null;default:0"`
	MinOrderCents           int            `gorm:"column:min_order_cents;not null;default:0"`
	IsActive                bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt               time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
