package payments

import (
	"context"
	"fmt"

	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
)

// InitializeResult is what a gateway returns after starting a payment.
type InitializeResult struct {
	// Reference is the transaction identifier stored on the order and later
	// matched against webhook deliveries.
	Reference string
	// CheckoutURL is the hosted payment page the client should redirect to.
	CheckoutURL string
}

// VerifyResult is the settled state reported by the gateway.
type VerifyResult struct {
	Reference string
	Status    enums.PaymentStatus
}

// Gateway abstracts a payment provider. Cash-on-delivery orders skip the
// gateway entirely.
type Gateway interface {
	Method() enums.PaymentMethod
	Initialize(ctx context.Context, order *models.Order) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

// Registry resolves gateways by payment method.
type Registry struct {
	gateways map[enums.PaymentMethod]Gateway
}

// NewRegistry indexes the provided gateways by their method.
func NewRegistry(gateways ...Gateway) (*Registry, error) {
	index := make(map[enums.PaymentMethod]Gateway, len(gateways))
	for _, gw := range gateways {
		if gw == nil {
			return nil, fmt.Errorf("nil gateway provided")
		}
		method := gw.Method()
		if _, dup := index[method]; dup {
			return nil, fmt.Errorf("duplicate gateway for method %s", method)
		}
		index[method] = gw
	}
	return &Registry{gateways: index}, nil
}

// ForMethod returns the gateway handling the provided method.
func (r *Registry) ForMethod(method enums.PaymentMethod) (Gateway, error) {
	gw, ok := r.gateways[method]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment method %s", method))
	}
	return gw, nil
}
