package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/yonaslemma/gursha-backend/pkg/chapa"
	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/money"
)

// ChapaGateway starts hosted checkout transactions on Chapa, used for
// ETB payments.
type ChapaGateway struct {
	client  *chapa.Client
	baseURL string
}

// NewChapaGateway builds the Chapa adapter.
func NewChapaGateway(client *chapa.Client, baseURL string) (*ChapaGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("chapa client required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("base url required")
	}
	return &ChapaGateway{client: client, baseURL: baseURL}, nil
}

// Method reports the payment method this gateway serves.
func (g *ChapaGateway) Method() enums.PaymentMethod {
	return enums.PaymentMethodChapa
}

// Initialize starts a transaction keyed by the order number, which doubles as
// the tx_ref matched against webhook deliveries.
func (g *ChapaGateway) Initialize(ctx context.Context, order *models.Order) (*InitializeResult, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}

	resp, err := g.client.Initialize(ctx, chapa.InitializeRequest{
		Amount:      money.ToMajorUnits(order.TotalCents),
		Currency:    string(order.Currency),
		TxRef:       order.OrderNumber,
		CallbackURL: g.baseURL + "/api/v1/webhooks/chapa",
		ReturnURL:   g.baseURL + "/checkout/success?order=" + order.OrderNumber,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "initialize chapa transaction")
	}

	return &InitializeResult{
		Reference:   order.OrderNumber,
		CheckoutURL: resp.Data.CheckoutURL,
	}, nil
}

// Verify checks the settled state of the transaction.
func (g *ChapaGateway) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}

	resp, err := g.client.Verify(ctx, reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify chapa transaction")
	}

	return &VerifyResult{
		Reference: reference,
		Status:    mapChapaStatus(resp.Data.Status),
	}, nil
}

func mapChapaStatus(raw string) enums.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success":
		return enums.PaymentStatusPaid
	case "failed":
		return enums.PaymentStatusFailed
	case "refunded":
		return enums.PaymentStatusRefunded
	default:
		return enums.PaymentStatusPending
	}
}
