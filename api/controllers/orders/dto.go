package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/types"
)

// UpdateStatusRequest moves the order to a new fulfillment status.
type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note,omitempty"`
}

// AssignShopperRequest attaches a shopper to the order.
type AssignShopperRequest struct {
	ShopperID uuid.UUID `json:"shopper_id" validate:"required"`
}

// SetDeliveryTimeRequest schedules the delivery slot.
type SetDeliveryTimeRequest struct {
	DeliveryAt time.Time `json:"delivery_at" validate:"required"`
}

// UpdatePaymentStatusRequest sets the payment state.
type UpdatePaymentStatusRequest struct {
	PaymentStatus string  `json:"payment_status" validate:"required"`
	Note          *string `json:"note,omitempty"`
}

// ItemView is the wire shape of an order line.
type ItemView struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	Name           string     `json:"name"`
	UnitPriceCents int        `json:"unit_price_cents"`
	Quantity       int        `json:"quantity"`
	TotalCents     int        `json:"total_cents"`
	Notes          *string    `json:"notes,omitempty"`
}

// HistoryView is one audit-trail entry.
type HistoryView struct {
	Status    string    `json:"status"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// View is the wire shape of an order.
type View struct {
	ID               uuid.UUID      `json:"id"`
	OrderNumber      string         `json:"order_number"`
	StoreID          uuid.UUID      `json:"store_id"`
	Status           string         `json:"status"`
	PaymentStatus    string         `json:"payment_status"`
	PaymentMethod    string         `json:"payment_method"`
	Currency         string         `json:"currency"`
	DeliveryAddress  *types.Address `json:"delivery_address,omitempty"`
	ShopperID        *uuid.UUID     `json:"shopper_id,omitempty"`
	DeliveryAt       *time.Time     `json:"delivery_at,omitempty"`
	Items            []ItemView     `json:"items"`
	StatusHistory    []HistoryView  `json:"status_history"`
	SubtotalCents    int            `json:"subtotal_cents"`
	TaxCents         int            `json:"tax_cents"`
	DeliveryFeeCents int            `json:"delivery_fee_cents"`
	ServiceFeeCents  int            `json:"service_fee_cents"`
	TipCents         int            `json:"tip_cents"`
	TotalCents       int            `json:"total_cents"`
	Notes            *string        `json:"notes,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// ListView is a page of orders.
type ListView struct {
	Orders []View `json:"orders"`
	Meta   any    `json:"meta"`
}

func newOrderView(order *models.Order) *View {
	if order == nil {
		return nil
	}
	items := make([]ItemView, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, ItemView{
			ID:             line.ID,
			ProductID:      line.ProductID,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			TotalCents:     line.TotalCents,
			Notes:          line.Notes,
		})
	}
	history := make([]HistoryView, 0, len(order.StatusHistory))
	for _, event := range order.StatusHistory {
		history = append(history, HistoryView{
			Status:    string(event.Status),
			Note:      event.Note,
			CreatedAt: event.CreatedAt,
		})
	}
	return &View{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		StoreID:          order.StoreID,
		Status:           string(order.Status),
		PaymentStatus:    string(order.PaymentStatus),
		PaymentMethod:    string(order.PaymentMethod),
		Currency:         string(order.Currency),
		DeliveryAddress:  order.DeliveryAddress,
		ShopperID:        order.ShopperID,
		DeliveryAt:       order.DeliveryAt,
		Items:            items,
		StatusHistory:    history,
		SubtotalCents:    order.SubtotalCents,
		TaxCents:         order.TaxCents,
		DeliveryFeeCents: order.DeliveryFeeCents,
		ServiceFeeCents:  order.ServiceFeeCents,
		TipCents:         order.TipCents,
		TotalCents:       order.TotalCents,
		Notes:            order.Notes,
		CreatedAt:        order.CreatedAt,
	}
}

func newOrderViews(rows []models.Order) []View {
	views := make([]View, 0, len(rows))
	for i := range rows {
		views = append(views, *newOrderView(&rows[i]))
	}
	return views
}
