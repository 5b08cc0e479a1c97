package cart

import (
	"time"

	"github.com/google/uuid"

	cartsvc "github.com/yonaslemma/gursha-backend/internal/cart"
	"github.com/yonaslemma/gursha-backend/pkg/db/models"
)

// AddItemRequest adds one product line to the caller's cart.
type AddItemRequest struct {
	StoreID   uuid.UUID `json:"store_id" validate:"required"`
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	Notes     *string   `json:"notes,omitempty"`
}

// UpdateItemRequest changes the quantity and optionally the notes of one line.
type UpdateItemRequest struct {
	Quantity int     `json:"quantity" validate:"required,min=1"`
	Notes    *string `json:"notes,omitempty"`
}

// ReplaceCartRequest swaps the full line set.
type ReplaceCartRequest struct {
	StoreID uuid.UUID            `json:"store_id" validate:"required"`
	Items   []ReplaceItemPayload `json:"items" validate:"required,min=1,dive"`
}

// ReplaceItemPayload is one line of a replacement.
type ReplaceItemPayload struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	Notes     *string   `json:"notes,omitempty"`
}

// TipRequest sets the tip amount.
type TipRequest struct {
	TipCents int `json:"tip_cents" validate:"min=0"`
}

// ApplyFeesRequest is the checkout-prep payload.
type ApplyFeesRequest struct {
	DeliveryFeeCents int  `json:"delivery_fee_cents" validate:"min=0"`
	ServiceFeeCents  int  `json:"service_fee_cents" validate:"min=0"`
	TipCents         *int `json:"tip_cents,omitempty" validate:"omitempty,min=0"`
}

// ItemView is the wire shape of a cart line.
type ItemView struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	LineTotalCents int       `json:"line_total_cents"`
	Notes          *string   `json:"notes,omitempty"`
}

// View is the wire shape of a cart with derived totals.
type View struct {
	ID               uuid.UUID  `json:"id"`
	StoreID          uuid.UUID  `json:"store_id"`
	Status           string     `json:"status"`
	Items            []ItemView `json:"items"`
	SubtotalCents    int        `json:"subtotal_cents"`
	TaxCents         int        `json:"tax_cents"`
	DeliveryFeeCents int        `json:"delivery_fee_cents"`
	ServiceFeeCents  int        `json:"service_fee_cents"`
	TipCents         int        `json:"tip_cents"`
	TotalCents       int        `json:"total_cents"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func newCartView(cart *models.Cart) *View {
	if cart == nil {
		return nil
	}
	items := make([]ItemView, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, ItemView{
			ID:             line.ID,
			ProductID:      line.ProductID,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			LineTotalCents: line.LineTotalCents(),
			Notes:          line.Notes,
		})
	}
	return &View{
		ID:               cart.ID,
		StoreID:          cart.StoreID,
		Status:           string(cart.Status),
		Items:            items,
		SubtotalCents:    cart.SubtotalCents,
		TaxCents:         cart.TaxCents,
		DeliveryFeeCents: cart.DeliveryFeeCents,
		ServiceFeeCents:  cart.ServiceFeeCents,
		TipCents:         cart.TipCents,
		TotalCents:       cart.TotalCents,
		UpdatedAt:        cart.UpdatedAt,
	}
}

func toReplaceInputs(items []ReplaceItemPayload) []cartsvc.ReplaceItemInput {
	inputs := make([]cartsvc.ReplaceItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, cartsvc.ReplaceItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Notes:     item.Notes,
		})
	}
	return inputs
}
