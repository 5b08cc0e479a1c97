package products

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yonaslemma/gursha-backend/api/responses"
	"github.com/yonaslemma/gursha-backend/api/validators"
	productsvc "github.com/yonaslemma/gursha-backend/internal/products"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
	"github.com/yonaslemma/gursha-backend/pkg/pagination"
)

// List returns products filtered by store, category, search text, or sale flag.
func List(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pagination.Parse(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination"))
			return
		}

		var filter productsvc.ListFilter
		if filter.StoreID, err = validators.ParseQueryUUID(r, "store_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.CategoryID, err = validators.ParseQueryUUID(r, "category_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Search = r.URL.Query().Get("search")
		if raw := r.URL.Query().Get("on_sale"); raw != "" {
			onSale, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "on_sale must be a boolean"))
				return
			}
			filter.OnSale = &onSale
		}

		rows, total, err := svc.List(r.Context(), filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ListView{
			Products: newProductViews(rows),
			Meta:     pagination.NewMeta(page, total),
		})
	}
}

// Get returns one product by id.
func Get(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetByID(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductView(product))
	}
}

// Create lists a product. Staff only.
func Create(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload CreateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var unit enums.ProductUnit
		if payload.Unit != "" {
			parsed, err := enums.ParseProductUnit(payload.Unit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product unit"))
				return
			}
			unit = parsed
		}

		product, err := svc.Create(r.Context(), productsvc.CreateProductInput{
			StoreID:        payload.StoreID,
			CategoryID:     payload.CategoryID,
			Name:           payload.Name,
			Description:    payload.Description,
			PriceCents:     payload.PriceCents,
			SalePriceCents: payload.SalePriceCents,
			OnSale:         payload.OnSale,
			Stock:          payload.Stock,
			Unit:           unit,
			ImageURL:       payload.ImageURL,
			Tags:           payload.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProductView(product))
	}
}

// Update applies a partial product update. Staff only.
func Update(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productID"), "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), productID, productsvc.UpdateProductInput{
			Name:           payload.Name,
			Description:    payload.Description,
			PriceCents:     payload.PriceCents,
			SalePriceCents: payload.SalePriceCents,
			OnSale:         payload.OnSale,
			Stock:          payload.Stock,
			ImageURL:       payload.ImageURL,
			IsActive:       payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductView(product))
	}
}
