package categories

import (
	"github.com/google/uuid"

	"github.com/yonaslemma/gursha-backend/pkg/db/models"
)

// CreateCategoryRequest adds a browse category.
type CreateCategoryRequest struct {
	Name      string  `json:"name" validate:"required"`
	Slug      string  `json:"slug" validate:"required"`
	ImageURL  *string `json:"image_url,omitempty"`
	SortOrder int     `json:"sort_order" validate:"min=0"`
}

// View is the wire shape of a category.
type View struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ImageURL  *string   `json:"image_url,omitempty"`
	SortOrder int       `json:"sort_order"`
}

// ListView wraps the full category list.
type ListView struct {
	Categories []View `json:"categories"`
}

func newCategoryView(category *models.Category) *View {
	if category == nil {
		return nil
	}
	return &View{
		ID:        category.ID,
		Name:      category.Name,
		Slug:      category.Slug,
		ImageURL:  category.ImageURL,
		SortOrder: category.SortOrder,
	}
}

func newCategoryViews(rows []models.Category) []View {
	views := make([]View, 0, len(rows))
	for i := range rows {
		views = append(views, *newCategoryView(&rows[i]))
	}
	return views
}
