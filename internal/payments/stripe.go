package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	stripeclient "github.com/yonaslemma/gursha-backend/pkg/stripe"
)

// StripeGateway starts hosted Checkout sessions for card payments.
type StripeGateway struct {
	client  *stripeclient.Client
	baseURL string
}

// NewStripeGateway builds the Stripe adapter.
func NewStripeGateway(client *stripeclient.Client, baseURL string) (*StripeGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("base url required")
	}
	return &StripeGateway{client: client, baseURL: baseURL}, nil
}

// Method reports the payment method this gateway serves.
func (g *StripeGateway) Method() enums.PaymentMethod {
	return enums.PaymentMethodStripe
}

// Initialize creates a Checkout session priced from the order snapshot. The
// session ID becomes the order's payment reference.
func (g *StripeGateway) Initialize(ctx context.Context, order *models.Order) (*InitializeResult, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}

	currency := string(order.Currency)
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items)+1)
	for _, item := range order.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(int64(item.UnitPriceCents)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	surcharges := order.TaxCents + order.DeliveryFeeCents + order.ServiceFeeCents + order.TipCents
	if surcharges > 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Taxes & fees"),
				},
				UnitAmount: stripe.Int64(int64(surcharges)),
			},
			Quantity: stripe.Int64(1),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         lineItems,
		ClientReferenceID: stripe.String(order.OrderNumber),
		SuccessURL:        stripe.String(g.baseURL + "/checkout/success?order=" + order.OrderNumber),
		CancelURL:         stripe.String(g.baseURL + "/checkout/cancel?order=" + order.OrderNumber),
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("order_number", order.OrderNumber)

	sess, err := session.New(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe checkout session")
	}

	return &InitializeResult{
		Reference:   sess.ID,
		CheckoutURL: sess.URL,
	}, nil
}

// Verify loads the session and maps its payment state.
func (g *StripeGateway) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := session.Get(reference, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe checkout session")
	}

	status := enums.PaymentStatusPending
	switch sess.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid:
		status = enums.PaymentStatusPaid
	case stripe.CheckoutSessionPaymentStatusUnpaid:
		status = enums.PaymentStatusPending
	}

	return &VerifyResult{Reference: sess.ID, Status: status}, nil
}
