package stores

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yonaslemma/gursha-backend/api/responses"
	"github.com/yonaslemma/gursha-backend/api/validators"
	storesvc "github.com/yonaslemma/gursha-backend/internal/stores"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
	"github.com/yonaslemma/gursha-backend/pkg/pagination"
)

// List returns active stores.
func List(svc storesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pagination.Parse(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination"))
			return
		}

		rows, total, err := svc.List(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ListView{
			Stores: newStoreViews(rows),
			Meta:   pagination.NewMeta(page, total),
		})
	}
}

// Get returns one store by id.
func Get(svc storesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := validators.ParsePathUUID(chi.URLParam(r, "storeID"), "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.GetByID(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newStoreView(store))
	}
}

// GetBySlug returns one store by its URL slug.
func GetBySlug(svc storesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newStoreView(store))
	}
}

// Create registers a store. Staff only.
func Create(svc storesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload CreateStoreRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Create(r.Context(), storesvc.CreateStoreInput{
			Name:                    payload.Name,
			Slug:                    payload.Slug,
			Description:             payload.Description,
			Phone:                   payload.Phone,
			Email:                   payload.Email,
			Address:                 payload.Address,
			LogoURL:                 payload.LogoURL,
			Tags:                    payload.Tags,
			DefaultDeliveryFeeCents: payload.DefaultDeliveryFeeCents,
			DefaultServiceFeeCents:  payload.DefaultServiceFeeCents,
			MinOrderCents:           payload.MinOrderCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newStoreView(store))
	}
}
