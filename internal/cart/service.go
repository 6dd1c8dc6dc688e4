package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VedantBankewar/payment-gateway/internal/catalog"
	"github.com/VedantBankewar/payment-gateway/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrProductNotInCart = errors.New("product not in cart")
)

// Service owns cart contents keyed by session id. It is the only writer of
// cart line items prior to checkout.
type Service struct {
	repo    Repository
	cache   Cache
	catalog catalog.Catalog
	logger  *zap.Logger
	sfg     singleflight.Group // Prevents cache stampede
}

func NewService(repo Repository, cache Cache, cat catalog.Catalog, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		catalog: cat,
		logger:  logger,
	}
}

// Get returns the existing cart or an empty one; it never fails on a missing
// cart.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {

		cached, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cached, nil // cart is in cache
		}

		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("cache get error", zap.Error(err)) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, sessionID)
		if errGet != nil && errors.Is(errGet, ErrCartNotFound) {
			return &domain.Cart{
				SessionID: sessionID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		// Fill the cache before returning so the entry can never land after a
		// later invalidation. A fill racing a concurrent mutation is dropped
		// by the cache's invalidation guard.
		if errSet := s.cache.Set(ctx, sessionID, cart); errSet != nil {
			s.logger.Warn("cache set error", zap.Error(errSet))
		}

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// Add captures the unit price from the catalog at the moment of add. If the
// product is already in the cart the quantities sum.
func (s *Service) Add(ctx context.Context, sessionID string, productID int64, quantity int32) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return catalog.ErrProductNotFound
		}
		return fmt.Errorf("catalog lookup failed: %w", err)
	}

	item := domain.CartItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    quantity,
	}
	if errAdd := s.repo.AddItem(ctx, sessionID, item); errAdd != nil {
		return errAdd
	}

	s.invalidateCache(sessionID)
	return nil
}

// SetQuantity replaces the quantity of an existing line item. A quantity of
// zero or below removes the item instead; removing an absent item is a no-op.
func (s *Service) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int32) error {
	if quantity <= 0 {
		return s.Remove(ctx, sessionID, productID)
	}

	err := s.repo.SetItemQuantity(ctx, sessionID, productID, quantity)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrProductNotInCart
		}
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *Service) Remove(ctx context.Context, sessionID string, productID int64) error {
	if err := s.repo.RemoveItem(ctx, sessionID, productID); err != nil {
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

// Clear empties the cart. Called by the order orchestrator on payment
// success; idempotent.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.repo.ClearCart(ctx, sessionID); err != nil {
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

// ClearIfUntouchedSince re-applies a clear that was lost to a crash. The cart
// is emptied only when its last mutation predates cutoff, so items the
// shopper added after the payment settled survive.
func (s *Service) ClearIfUntouchedSince(ctx context.Context, sessionID string, cutoff time.Time) error {
	if err := s.repo.ClearCartBefore(ctx, sessionID, cutoff); err != nil {
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

// Snapshot reads the cart in a single repository call, so the copy is
// internally consistent. It bypasses the cache: an order must never be seeded
// from stale data.
func (s *Service) Snapshot(ctx context.Context, sessionID, currency string) (*domain.CartSnapshot, error) {
	cart, err := s.repo.GetCart(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return (&domain.Cart{SessionID: sessionID}).Snapshot(currency), nil
		}
		return nil, err
	}
	return cart.Snapshot(currency), nil
}

func (s *Service) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("cache invalidate error", zap.Error(err))
	}
}
