package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/pagination"
)

type storeLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// CreateProductInput captures the payload for listing a product.
type CreateProductInput struct {
	StoreID        uuid.UUID
	CategoryID     *uuid.UUID
	Name           string
	Description    *string
	PriceCents     int
	SalePriceCents *int
	OnSale         bool
	Stock          int
	Unit           enums.ProductUnit
	ImageURL       *string
	Tags           []string
}

// UpdateProductInput carries optional fields for a partial update.
type UpdateProductInput struct {
	Name           *string
	Description    *string
	PriceCents     *int
	SalePriceCents *int
	OnSale         *bool
	Stock          *int
	ImageURL       *string
	IsActive       *bool
}

// Service exposes product catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ListFilter, page pagination.Page) ([]models.Product, int64, error)
}

type service struct {
	repo   *Repository
	stores storeLoader
}

// NewService builds a product service.
func NewService(repo *Repository, stores storeLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store loader required")
	}
	return &service{repo: repo, stores: stores}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.SalePriceCents != nil && *input.SalePriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale price must be positive")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	unit := input.Unit
	if unit == "" {
		unit = enums.ProductUnitEach
	}
	if !unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product unit")
	}

	if _, err := s.stores.GetByID(ctx, input.StoreID); err != nil {
		return nil, err
	}

	product := &models.Product{
		StoreID:        input.StoreID,
		CategoryID:     input.CategoryID,
		Name:           name,
		Description:    input.Description,
		PriceCents:     input.PriceCents,
		SalePriceCents: input.SalePriceCents,
		OnSale:         input.OnSale,
		Stock:          input.Stock,
		Unit:           unit,
		ImageURL:       input.ImageURL,
		Tags:           input.Tags,
		IsActive:       true,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.SalePriceCents != nil {
		if *input.SalePriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale price must be positive")
		}
		product.SalePriceCents = input.SalePriceCents
	}
	if input.OnSale != nil {
		product.OnSale = *input.OnSale
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return updated, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, page pagination.Page) ([]models.Product, int64, error) {
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, total, nil
}
