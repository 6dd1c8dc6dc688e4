package domain

import "time"

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	SessionID string     `bson:"session_id" json:"session_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// CartItem captures the unit price at the moment the product was added.
// The price is never refreshed from the catalog afterwards.
type CartItem struct {
	ProductID   int64     `bson:"product_id" json:"product_id"`
	ProductName string    `bson:"product_name" json:"product_name"`
	UnitPrice   int64     `bson:"unit_price" json:"unit_price"`
	Quantity    int32     `bson:"quantity" json:"quantity"`
	AddedAt     time.Time `bson:"added_at" json:"added_at"`
}

// TotalAmount is always recomputed from the items, never cached.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

func (c *Cart) TotalItems() int32 {
	var n int32
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

type CartSnapshotItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Subtotal    int64  `json:"subtotal"`
}

// CartSnapshot is an immutable copy of the cart taken at a single instant,
// used to seed an order.
type CartSnapshot struct {
	SessionID   string             `json:"session_id"`
	Items       []CartSnapshotItem `json:"items"`
	TotalAmount int64              `json:"total_amount"`
	Currency    string             `json:"currency"`
	CapturedAt  time.Time          `json:"captured_at"`
}

// Snapshot copies the cart items and fixes the total. The cart document is
// read in one operation, so no item is visible mid-mutation.
func (c *Cart) Snapshot(currency string) *CartSnapshot {
	snapshot := &CartSnapshot{
		SessionID:  c.SessionID,
		Items:      make([]CartSnapshotItem, 0, len(c.Items)),
		Currency:   currency,
		CapturedAt: time.Now(),
	}

	var total int64
	for _, item := range c.Items {
		subtotal := item.UnitPrice * int64(item.Quantity)
		snapshot.Items = append(snapshot.Items, CartSnapshotItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    subtotal,
		})
		total += subtotal
	}
	snapshot.TotalAmount = total
	return snapshot
}
