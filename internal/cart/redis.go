package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// guardTTL bounds how long fills carrying pre-invalidation state are refused
// after a Delete. Fills are suppressed for at most this long after a mutation.
const guardTTL = 2 * time.Second

// setIfFresh refuses the write when the cart snapshot predates the last
// invalidation, so a slow reader cannot resurrect a deleted entry.
var setIfFresh = redis.NewScript(`
local guard = redis.call('GET', KEYS[2])
if guard and tonumber(ARGV[2]) < tonumber(guard) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

func (r *RedisCache) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	key := cacheKey(sessionID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err2 := json.Unmarshal(data, &cart); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}

	return &cart, nil
}

func (r *RedisCache) Set(ctx context.Context, sessionID string, cart *domain.Cart) error {
	key := cacheKey(sessionID)
	jsonCart, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	keys := []string{key, guardKey(sessionID)}
	args := []interface{}{jsonCart, cart.UpdatedAt.UnixMilli(), ttl.Milliseconds()}
	if err := setIfFresh.Run(ctx, r.client, keys, args...).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete drops the entry and stamps the invalidation time, so an in-flight
// fill that read the cart before this call cannot write it back.
func (r *RedisCache) Delete(ctx context.Context, sessionID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, cacheKey(sessionID))
	pipe.Set(ctx, guardKey(sessionID), time.Now().UnixMilli(), guardTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func guardKey(sessionID string) string {
	return fmt.Sprintf("cart:guard:%s", sessionID)
}
