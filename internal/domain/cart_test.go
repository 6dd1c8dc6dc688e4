package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCart_TotalAmount(t *testing.T) {
	cart := &Cart{
		SessionID: "sess-1",
		Items: []CartItem{
			{ProductID: 1, UnitPrice: 500, Quantity: 2},
			{ProductID: 2, UnitPrice: 1500, Quantity: 1},
		},
	}

	assert.Equal(t, int64(2500), cart.TotalAmount())
	assert.Equal(t, int32(3), cart.TotalItems())
}

func TestCart_TotalAmount_Empty(t *testing.T) {
	cart := &Cart{SessionID: "sess-1"}

	assert.Equal(t, int64(0), cart.TotalAmount())
	assert.Equal(t, int32(0), cart.TotalItems())
}

func TestCart_Snapshot(t *testing.T) {
	cart := &Cart{
		SessionID: "sess-1",
		Items: []CartItem{
			{ProductID: 1, ProductName: "A", UnitPrice: 500, Quantity: 2},
			{ProductID: 2, ProductName: "B", UnitPrice: 1500, Quantity: 1},
		},
	}

	snapshot := cart.Snapshot("INR")

	assert.Equal(t, "sess-1", snapshot.SessionID)
	assert.Equal(t, "INR", snapshot.Currency)
	assert.Len(t, snapshot.Items, 2)
	assert.Equal(t, int64(1000), snapshot.Items[0].Subtotal)
	assert.Equal(t, int64(1500), snapshot.Items[1].Subtotal)
	assert.Equal(t, int64(2500), snapshot.TotalAmount)
	assert.False(t, snapshot.CapturedAt.IsZero())
}

func TestCart_Snapshot_IsACopy(t *testing.T) {
	cart := &Cart{
		SessionID: "sess-1",
		Items:     []CartItem{{ProductID: 1, ProductName: "A", UnitPrice: 500, Quantity: 2}},
	}

	snapshot := cart.Snapshot("INR")

	// Mutating the cart afterwards must not affect the snapshot.
	cart.Items[0].Quantity = 99
	cart.Items = append(cart.Items, CartItem{ProductID: 2, UnitPrice: 100, Quantity: 1})

	assert.Len(t, snapshot.Items, 1)
	assert.Equal(t, int32(2), snapshot.Items[0].Quantity)
	assert.Equal(t, int64(1000), snapshot.TotalAmount)
}

func TestCart_Snapshot_Empty(t *testing.T) {
	cart := &Cart{SessionID: "sess-1"}

	snapshot := cart.Snapshot("INR")

	assert.Empty(t, snapshot.Items)
	assert.Equal(t, int64(0), snapshot.TotalAmount)
}
