package categories

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yonaslemma/gursha-backend/api/responses"
	"github.com/yonaslemma/gursha-backend/api/validators"
	categorysvc "github.com/yonaslemma/gursha-backend/internal/categories"
	"github.com/yonaslemma/gursha-backend/pkg/logger"
)

// List returns all active categories in display order.
func List(svc categorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ListView{Categories: newCategoryViews(rows)})
	}
}

// Get returns one category by id.
func Get(svc categorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.ParsePathUUID(chi.URLParam(r, "categoryID"), "categoryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.GetByID(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCategoryView(category))
	}
}

// Create adds a category. Staff only.
func Create(svc categorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload CreateCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.Create(r.Context(), categorysvc.CreateCategoryInput{
			Name:      payload.Name,
			Slug:      payload.Slug,
			ImageURL:  payload.ImageURL,
			SortOrder: payload.SortOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCategoryView(category))
	}
}
