package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *MongoRepository) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"session_id": sessionID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

// AddItem sums quantities when the product is already a line item and pushes
// a new line otherwise, creating the cart on first add. Each step is a single
// atomic update, so concurrent adds for the same session cannot duplicate a
// line item.
func (m *MongoRepository) AddItem(ctx context.Context, sessionID string, item domain.CartItem) error {
	now := time.Now()
	item.AddedAt = now

	// The retry covers two first-ever adds racing on the upsert: the loser
	// hits the unique session_id index and takes the $inc path next pass.
	for attempt := 0; attempt < 3; attempt++ {
		// Quantities sum; the unit price captured at first add stays.
		incFilter := bson.M{
			"session_id":       sessionID,
			"items.product_id": item.ProductID,
		}
		incUpdate := bson.M{
			"$inc": bson.M{"items.$.quantity": item.Quantity},
			"$set": bson.M{"updated_at": now},
		}
		res, err := m.collection.UpdateOne(ctx, incFilter, incUpdate)
		if err != nil {
			return fmt.Errorf("failed to update existing item: %w", err)
		}
		if res.MatchedCount > 0 {
			return nil
		}

		// The $ne clause keeps a concurrent push of the same product from
		// producing a second line item; the upsert creates the cart when it
		// does not exist yet.
		pushFilter := bson.M{
			"session_id":       sessionID,
			"items.product_id": bson.M{"$ne": item.ProductID},
		}
		pushUpdate := bson.M{
			"$push":        bson.M{"items": item},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		}
		_, err = m.collection.UpdateOne(ctx, pushFilter, pushUpdate, options.Update().SetUpsert(true))
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to add new item: %w", err)
		}
	}

	return errors.New("failed to add item: retries exhausted")
}

func (m *MongoRepository) SetItemQuantity(ctx context.Context, sessionID string, productID int64, quantity int32) error {
	filter := bson.M{
		"session_id":       sessionID,
		"items.product_id": productID,
	}

	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"updated_at":             time.Now(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

// RemoveItem is idempotent: removing an absent item or from an absent cart
// is a no-op success.
func (m *MongoRepository) RemoveItem(ctx context.Context, sessionID string, productID int64) error {
	filter := bson.M{"session_id": sessionID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	_, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	return nil
}

// ClearCart empties the items but keeps the cart document.
func (m *MongoRepository) ClearCart(ctx context.Context, sessionID string) error {
	filter := bson.M{"session_id": sessionID}
	update := bson.M{
		"$set": bson.M{
			"items":      []domain.CartItem{},
			"updated_at": time.Now(),
		},
	}

	_, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

// ClearCartBefore empties the cart only if nothing touched it after cutoff.
// Recovery path for a clear lost to a crash; items the shopper added since
// the payment are left alone.
func (m *MongoRepository) ClearCartBefore(ctx context.Context, sessionID string, cutoff time.Time) error {
	filter := bson.M{
		"session_id": sessionID,
		"updated_at": bson.M{"$lte": cutoff},
	}
	update := bson.M{
		"$set": bson.M{
			"items":      []domain.CartItem{},
			"updated_at": time.Now(),
		},
	}

	_, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
