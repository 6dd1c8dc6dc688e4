package cart

import (
	"context"
	"sync"
	"time"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
)

// mockRepository is an in-memory Repository for service tests.
type mockRepository struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart

	getErr   error
	addErr   error
	clearErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{carts: make(map[string]*domain.Cart)}
}

func (m *mockRepository) GetCart(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	cart, ok := m.carts[sessionID]
	if !ok {
		return nil, ErrCartNotFound
	}
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (m *mockRepository) AddItem(_ context.Context, sessionID string, item domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	cart, ok := m.carts[sessionID]
	if !ok {
		now := time.Now()
		m.carts[sessionID] = &domain.Cart{
			SessionID: sessionID,
			Items:     []domain.CartItem{item},
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	}
	cart.UpdatedAt = time.Now()
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	cart.Items = append(cart.Items, item)
	return nil
}

func (m *mockRepository) SetItemQuantity(_ context.Context, sessionID string, productID int64, quantity int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[sessionID]
	if !ok {
		return ErrItemNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			cart.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrItemNotFound
}

func (m *mockRepository) RemoveItem(_ context.Context, sessionID string, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[sessionID]
	if !ok {
		return nil
	}
	items := cart.Items[:0]
	for _, it := range cart.Items {
		if it.ProductID != productID {
			items = append(items, it)
		}
	}
	cart.Items = items
	cart.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepository) ClearCart(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	if cart, ok := m.carts[sessionID]; ok {
		cart.Items = []domain.CartItem{}
		cart.UpdatedAt = time.Now()
	}
	return nil
}

func (m *mockRepository) ClearCartBefore(_ context.Context, sessionID string, cutoff time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	cart, ok := m.carts[sessionID]
	if !ok || cart.UpdatedAt.After(cutoff) {
		return nil
	}
	cart.Items = []domain.CartItem{}
	cart.UpdatedAt = time.Now()
	return nil
}

// mockCache records cache traffic; by default everything is a miss.
type mockCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Cart
	gets    int
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]*domain.Cart)}
}

func (m *mockCache) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if cart, ok := m.entries[sessionID]; ok {
		return cart, nil
	}
	return nil, ErrCacheMiss
}

func (m *mockCache) Set(_ context.Context, sessionID string, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sessionID] = cart
	return nil
}

func (m *mockCache) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.entries, sessionID)
	return nil
}
