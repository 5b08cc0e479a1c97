package webhooks

import (
	"io"
	"net/http"

	"github.com/yonaslemma/gursha-backend/api/responses"
	chapawebhook "github.com/yonaslemma/gursha-backend/internal/webhooks/chapa"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
)

// Chapa verifies the Chapa-Signature header and applies the transaction event.
func Chapa(svc *chapawebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		if err := svc.HandleEvent(r.Context(), payload, r.Header.Get("Chapa-Signature")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"received": "true"})
	}
}
