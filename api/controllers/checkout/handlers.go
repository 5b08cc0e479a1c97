package checkout

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/yonaslemma/gursha-backend/api/middleware"
	"github.com/yonaslemma/gursha-backend/api/responses"
	"github.com/yonaslemma/gursha-backend/api/validators"
	checkoutsvc "github.com/yonaslemma/gursha-backend/internal/checkout"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
	"github.com/yonaslemma/gursha-backend/pkg/types"
)

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	CartID          uuid.UUID     `json:"cart_id" validate:"required"`
	PaymentMethod   string        `json:"payment_method" validate:"required"`
	Currency        string        `json:"currency,omitempty"`
	DeliveryAddress types.Address `json:"delivery_address" validate:"required"`
	Notes           *string       `json:"notes,omitempty"`
}

// CreateOrderResponse bundles the order with the hosted payment URL.
type CreateOrderResponse struct {
	Order       any    `json:"order"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

// Create converts the caller's cart into an order.
func Create(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := middleware.UserIDFromContext(r.Context())
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		var payload CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method"))
			return
		}

		var currency enums.Currency
		if payload.Currency != "" {
			currency, err = enums.ParseCurrency(payload.Currency)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency"))
				return
			}
		}

		address := payload.DeliveryAddress
		result, err := svc.CreateOrder(r.Context(), userID, checkoutsvc.CreateOrderInput{
			CartID:          payload.CartID,
			PaymentMethod:   method,
			Currency:        currency,
			DeliveryAddress: &address,
			Notes:           payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, CreateOrderResponse{
			Order:       result.Order,
			CheckoutURL: result.CheckoutURL,
		})
	}
}
