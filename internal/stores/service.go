package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yonaslemma/gursha-backend/pkg/db"
	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/pagination"
	"github.com/yonaslemma/gursha-backend/pkg/types"
)

// CreateStoreInput captures the payload for registering a store.
type CreateStoreInput struct {
	Name                    string
	Slug                    string
	Description             *string
	Phone                   *string
	Email                   *string
	Address                 *types.Address
	LogoURL                 *string
	Tags                    []string
	DefaultDeliveryFeeCents int
	DefaultServiceFeeCents  int
	MinOrderCents           int
}

// Service exposes store catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateStoreInput) (*models.Store, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	GetBySlug(ctx context.Context, slug string) (*models.Store, error)
	List(ctx context.Context, page pagination.Page) ([]models.Store, int64, error)
}

type service struct {
	repo *Repository
}

// NewService builds a store service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateStoreInput) (*models.Store, error) {
	name := strings.TrimSpace(input.Name)
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store slug is required")
	}
	if input.DefaultDeliveryFeeCents < 0 || input.DefaultServiceFeeCents < 0 || input.MinOrderCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store fees must be non-negative")
	}
	if input.Address != nil {
		if err := input.Address.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store address")
		}
	}

	store := &models.Store{
		Name:                    name,
		Slug:                    slug,
		Description:             input.Description,
		Phone:                   input.Phone,
		Email:                   input.Email,
		Address:                 input.Address,
		LogoURL:                 input.LogoURL,
		Tags:                    input.Tags,
		DefaultDeliveryFeeCents: input.DefaultDeliveryFeeCents,
		DefaultServiceFeeCents:  input.DefaultServiceFeeCents,
		MinOrderCents:           input.MinOrderCents,
		IsActive:                true,
	}

	created, err := s.repo.Create(ctx, store)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "store slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	return created, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Store, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store slug is required")
	}
	store, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func (s *service) List(ctx context.Context, page pagination.Page) ([]models.Store, int64, error) {
	rows, total, err := s.repo.ListActive(ctx, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	return rows, total, nil
}
