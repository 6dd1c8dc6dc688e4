package catalog

import (
	"context"
	"errors"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Catalog is the read-only product source consumed by the cart and the
// product endpoints.
type Catalog interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
}
