package webhooks

import (
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/yonaslemma/gursha-backend/api/responses"
	stripewebhook "github.com/yonaslemma/gursha-backend/internal/webhooks/stripe"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
)

// maxWebhookBody caps gateway payloads; Stripe recommends 64KB.
const maxWebhookBody = 65536

// Stripe verifies the Stripe-Signature header and applies the event.
// Returns 200 for events the service chooses to ignore so Stripe stops
// retrying them.
func Stripe(svc *stripewebhook.Service, signingSecret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), signingSecret)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "verify stripe signature"))
			return
		}

		if err := svc.HandleEvent(r.Context(), &event); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"received": "true"})
	}
}
