package cart

import (
	"context"
	"errors"
	"time"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// Repository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type Repository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, item domain.CartItem) error
	SetItemQuantity(ctx context.Context, sessionID string, productID int64, quantity int32) error
	RemoveItem(ctx context.Context, sessionID string, productID int64) error
	ClearCart(ctx context.Context, sessionID string) error
	ClearCartBefore(ctx context.Context, sessionID string, cutoff time.Time) error
}
