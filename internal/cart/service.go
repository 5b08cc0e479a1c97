package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yonaslemma/gursha-backend/pkg/config"
	"github.com/yonaslemma/gursha-backend/pkg/db/models"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type storeLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// AddItemInput captures the payload for adding a product line to a cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Notes     *string
}

// UpdateItemInput carries the mutable fields of an existing cart line.
type UpdateItemInput struct {
	Quantity int
	Notes    *string
}

// ReplaceItemInput is one line of a full-cart replacement.
type ReplaceItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Notes     *string
}

// ApplyFeesInput carries the checkout-prep fee amounts.
type ApplyFeesInput struct {
	DeliveryFeeCents int
	ServiceFeeCents  int
	TipCents         *int
}

// RemoveResult reports the cart state after removing a line. Deleted is true
// when the removed line was the last one and the cart itself was dropped.
type RemoveResult struct {
	Cart    *models.Cart
	Deleted bool
}

// Service exposes cart staging operations. Prices and names are snapshotted
// at add time; totals are recomputed on every mutation.
type Service interface {
	GetActiveCart(ctx context.Context, userID, storeID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID, storeID uuid.UUID, input AddItemInput) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID, cartID, itemID uuid.UUID, input UpdateItemInput) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, cartID, itemID uuid.UUID) (*RemoveResult, error)
	ReplaceItems(ctx context.Context, userID, storeID uuid.UUID, items []ReplaceItemInput) (*models.Cart, error)
	SetTip(ctx context.Context, userID, cartID uuid.UUID, tipCents int) (*models.Cart, error)
	ApplyFees(ctx context.Context, userID, cartID uuid.UUID, input ApplyFeesInput) (*models.Cart, error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	stores   storeLoader
	products productLoader
	cfg      config.CartConfig
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, stores storeLoader, productRepo productLoader, cfg config.CartConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store loader required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		stores:   stores,
		products: productRepo,
		cfg:      cfg,
	}, nil
}

// GetActiveCart returns the active cart for the user at the store, or not-found.
func (s *service) GetActiveCart(ctx context.Context, userID, storeID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil || storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and store id are required")
	}
	cart, err := s.repo.FindActiveByUserStore(ctx, userID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// AddItem snapshots the product's current price and name into a cart line.
// Adding a product already in the cart merges quantities on the existing line
// and keeps the original snapshot price.
func (s *service) AddItem(ctx context.Context, userID, storeID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if userID == uuid.Nil || storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and store id are required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	product, err := s.loadSellableProduct(ctx, input.ProductID, storeID)
	if err != nil {
		return nil, err
	}

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.FindActiveByUserStore(ctx, userID, storeID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			cart, err = txRepo.Create(ctx, &models.Cart{
				UserID:           userID,
				StoreID:          storeID,
				DeliveryFeeCents: store.DefaultDeliveryFeeCents,
				ServiceFeeCents:  store.DefaultServiceFeeCents,
			})
			if err != nil {
				return err
			}
		}

		merged := false
		for i := range cart.Items {
			if cart.Items[i].ProductID == input.ProductID {
				if err := requireStock(product, cart.Items[i].Quantity+input.Quantity); err != nil {
					return err
				}
				cart.Items[i].Quantity += input.Quantity
				if input.Notes != nil {
					cart.Items[i].Notes = input.Notes
				}
				if err := txRepo.UpsertItem(ctx, &cart.Items[i]); err != nil {
					return err
				}
				merged = true
				break
			}
		}
		if !merged {
			if s.cfg.MaxItemsPerCart > 0 && len(cart.Items) >= s.cfg.MaxItemsPerCart {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart item limit reached")
			}
			if err := requireStock(product, input.Quantity); err != nil {
				return err
			}
			line := models.CartItem{
				CartID:         cart.ID,
				ProductID:      product.ID,
				Name:           product.Name,
				UnitPriceCents: product.EffectivePriceCents(),
				Quantity:       input.Quantity,
				Notes:          input.Notes,
			}
			if err := txRepo.UpsertItem(ctx, &line); err != nil {
				return err
			}
		}

		saved, err = s.refreshTotals(ctx, txRepo, cart.ID, userID)
		return err
	}); err != nil {
		return nil, wrapCartErr(err, "add cart item")
	}

	return saved, nil
}

// UpdateItem sets the quantity and optionally the notes of an existing line,
// keeping its snapshot price.
func (s *service) UpdateItem(ctx context.Context, userID, cartID, itemID uuid.UUID, input UpdateItemInput) (*models.Cart, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := s.loadOwnedCart(ctx, txRepo, cartID, userID)
		if err != nil {
			return err
		}

		var line *models.CartItem
		for i := range cart.Items {
			if cart.Items[i].ID == itemID {
				line = &cart.Items[i]
				break
			}
		}
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return err
		}
		if err := requireStock(product, input.Quantity); err != nil {
			return err
		}

		line.Quantity = input.Quantity
		if input.Notes != nil {
			line.Notes = input.Notes
		}
		if err := txRepo.UpsertItem(ctx, line); err != nil {
			return err
		}

		saved, err = s.refreshTotals(ctx, txRepo, cart.ID, userID)
		return err
	}); err != nil {
		return nil, wrapCartErr(err, "update cart item")
	}

	return saved, nil
}

// RemoveItem drops a line. Removing the last line deletes the whole cart.
func (s *service) RemoveItem(ctx context.Context, userID, cartID, itemID uuid.UUID) (*RemoveResult, error) {
	result := &RemoveResult{}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := s.loadOwnedCart(ctx, txRepo, cartID, userID)
		if err != nil {
			return err
		}

		found := false
		for i := range cart.Items {
			if cart.Items[i].ID == itemID {
				found = true
				break
			}
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		if err := txRepo.DeleteItem(ctx, cart.ID, itemID); err != nil {
			return err
		}

		if len(cart.Items) == 1 {
			if err := txRepo.Delete(ctx, cart.ID); err != nil {
				return err
			}
			result.Deleted = true
			return nil
		}

		result.Cart, err = s.refreshTotals(ctx, txRepo, cart.ID, userID)
		return err
	}); err != nil {
		return nil, wrapCartErr(err, "remove cart item")
	}

	return result, nil
}

// ReplaceItems swaps the full line set in one transaction, re-snapshotting
// every product's current price.
func (s *service) ReplaceItems(ctx context.Context, userID, storeID uuid.UUID, items []ReplaceItemInput) (*models.Cart, error) {
	if userID == uuid.Nil || storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and store id are required")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one item")
	}
	if s.cfg.MaxItemsPerCart > 0 && len(items) > s.cfg.MaxItemsPerCart {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item limit reached")
	}

	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]struct{}{}
	lines := make([]models.CartItem, 0, len(items))
	for _, payload := range items {
		if payload.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if payload.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if _, dup := seen[payload.ProductID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in cart payload")
		}
		seen[payload.ProductID] = struct{}{}

		product, err := s.loadSellableProduct(ctx, payload.ProductID, storeID)
		if err != nil {
			return nil, err
		}
		if err := requireStock(product, payload.Quantity); err != nil {
			return nil, err
		}

		lines = append(lines, models.CartItem{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPriceCents: product.EffectivePriceCents(),
			Quantity:       payload.Quantity,
			Notes:          payload.Notes,
		})
	}

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.FindActiveByUserStore(ctx, userID, storeID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			cart, err = txRepo.Create(ctx, &models.Cart{
				UserID:           userID,
				StoreID:          storeID,
				DeliveryFeeCents: store.DefaultDeliveryFeeCents,
				ServiceFeeCents:  store.DefaultServiceFeeCents,
			})
			if err != nil {
				return err
			}
		}

		if err := txRepo.ReplaceItems(ctx, cart.ID, lines); err != nil {
			return err
		}

		saved, err = s.refreshTotals(ctx, txRepo, cart.ID, userID)
		return err
	}); err != nil {
		return nil, wrapCartErr(err, "replace cart items")
	}

	return saved, nil
}

// SetTip updates the tip amount and recomputes the total.
func (s *service) SetTip(ctx context.Context, userID, cartID uuid.UUID, tipCents int) (*models.Cart, error) {
	if tipCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tip cannot be negative")
	}

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := s.loadOwnedCart(ctx, txRepo, cartID, userID)
		if err != nil {
			return err
		}

		cart.TipCents = tipCents
		if _, err := txRepo.Update(ctx, cart); err != nil {
			return err
		}

		saved, err = s.refreshTotals(ctx, txRepo, cart.ID, userID)
		return err
	}); err != nil {
		return nil, wrapCartErr(err, "set cart tip")
	}

	return saved, nil
}

// ApplyFees is the checkout-prep step: it re-validates that every line's
// product is still active and in stock, then sets the delivery/service fees
// (and the tip, when provided) and recomputes the totals. Guards against the
// cart going stale between add and checkout.
func (s *service) ApplyFees(ctx context.Context, userID, cartID uuid.UUID, input ApplyFeesInput) (*models.Cart, error) {
	if input.DeliveryFeeCents < 0 || input.ServiceFeeCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fees cannot be negative")
	}
	if input.TipCents != nil && *input.TipCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tip cannot be negative")
	}

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := s.loadOwnedCart(ctx, txRepo, cartID, userID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		for _, line := range cart.Items {
			product, err := s.products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is no longer available", line.Name))
			}
			if err := requireStock(product, line.Quantity); err != nil {
				return err
			}
		}

		cart.DeliveryFeeCents = input.DeliveryFeeCents
		cart.ServiceFeeCents = input.ServiceFeeCents
		if input.TipCents != nil {
			cart.TipCents = *input.TipCents
		}
		if _, err := txRepo.Update(ctx, cart); err != nil {
			return err
		}

		saved, err = s.refreshTotals(ctx, txRepo, cart.ID, userID)
		return err
	}); err != nil {
		return nil, wrapCartErr(err, "apply cart fees")
	}

	return saved, nil
}

func requireStock(product *models.Product, quantity int) error {
	if product.Stock < quantity {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("insufficient stock for %s", product.Name))
	}
	return nil
}

func (s *service) loadSellableProduct(ctx context.Context, productID, storeID uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product does not belong to this store")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	return product, nil
}

func (s *service) loadOwnedCart(ctx context.Context, repo *Repository, cartID, userID uuid.UUID) (*models.Cart, error) {
	if cartID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id and user id are required")
	}
	cart, err := repo.FindByIDAndUser(ctx, cartID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, err
	}
	return cart, nil
}

// refreshTotals reloads the cart lines and recomputes the derived money
// fields: subtotal, tax on the subtotal, and the final total.
func (s *service) refreshTotals(ctx context.Context, repo *Repository, cartID, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByIDAndUser(ctx, cartID, userID)
	if err != nil {
		return nil, err
	}

	subtotal := 0
	for _, line := range cart.Items {
		subtotal += line.LineTotalCents()
	}

	cart.SubtotalCents = subtotal
	cart.TaxCents = money.Tax(subtotal, s.cfg.TaxRateBasisPoints)
	cart.TotalCents = cart.SubtotalCents + cart.TaxCents + cart.DeliveryFeeCents + cart.ServiceFeeCents + cart.TipCents

	return repo.Update(ctx, cart)
}

func wrapCartErr(err error, op string) error {
	var coded *pkgerrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
