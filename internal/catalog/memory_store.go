package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
)

// MemoryStore implements Catalog with in-memory storage
type MemoryStore struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{products: make(map[int64]domain.Product)}
	s.seed()
	return s
}

// seed pre-loads the sample products. Prices are in paise.
func (s *MemoryStore) seed() {
	for _, p := range []domain.Product{
		{ID: 1, Name: "Premium Wireless Earbuds",
			Description: "High-quality wireless earbuds with noise cancellation and 24-hour battery life",
			Price:       399900, Glyph: "🎧", Category: "Electronics"},
		{ID: 2, Name: "Smart Fitness Band",
			Description: "Track your health with heart rate monitor, sleep tracking, and 7-day battery",
			Price:       149900, Glyph: "⌚", Category: "Wearables"},
		{ID: 3, Name: "Aluminum Laptop Stand",
			Description: "Ergonomic laptop stand with adjustable height and cooling ventilation",
			Price:       249900, Glyph: "💻", Category: "Accessories"},
		{ID: 4, Name: "Mechanical Gaming Keyboard",
			Description: "RGB backlit mechanical keyboard with blue switches and macro keys",
			Price:       499900, Glyph: "⌨️", Category: "Gaming"},
		{ID: 5, Name: "USB-C Hub 7-in-1",
			Description: "Multi-port adapter with HDMI, USB 3.0, SD card reader, and PD charging",
			Price:       199900, Glyph: "🔌", Category: "Accessories"},
		{ID: 6, Name: "Portable Bluetooth Speaker",
			Description: "Waterproof speaker with 360° sound and 12-hour playtime",
			Price:       299900, Glyph: "🔊", Category: "Audio"},
	} {
		s.products[p.ID] = p
	}
}

func (s *MemoryStore) List(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &p, nil
}
