package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/yonaslemma/gursha-backend/pkg/enums"
	"github.com/yonaslemma/gursha-backend/pkg/types"
)

// Order is the immutable-once-created record of a completed checkout. Totals
// are copied verbatim from the source cart, never recomputed. Only status,
// payment status, and assignment fields mutate after creation.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      string              `gorm:"column:order_number;not null;uniqueIndex"`
	UserID           *uuid.UUID          `gorm:"column:user_id;type:uuid;index"`
	StoreID          uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	CartID           *uuid.UUID          `gorm:"column:cart_id;type:uuid"`
	Status           enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PaymentReference *string             `gorm:"column:payment_reference;index"`
	Currency         enums.Currency      `gorm:"column:currency;not null;default:'USD'"`
	DeliveryAddress  *types.Address      `gorm:"column:delivery_address;type:jsonb;serializer:json"`
	ShopperID        *uuid.UUID          `gorm:"column:shopper_id;type:uuid;index"`
	DeliveryAt       *time.Time          `gorm:"column:delivery_at"`
	SubtotalCents    int                 `gorm:"column:subtotal_cents;not null"`
	TaxCents         int                 `gorm:"column:tax_cents;not null"`
	DeliveryFeeCents int                 `gorm:"column:delivery_fee_cents;not null"`
	ServiceFeeCents  int                 `gorm:"column:service_fee_cents;not null"`
	TipCents         int                 `gorm:"column:tip_cents;not null"`
	TotalCents       int                 `gorm:"column:total_cents;not null"`
	Notes            *string             `gorm:"column:notes"`
	Items            []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory    []OrderStatusEvent  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
