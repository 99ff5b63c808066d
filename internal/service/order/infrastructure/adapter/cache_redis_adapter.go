// internal/service/order/infrastructure/adapter/cache_redis_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"time"

	"microcommerce/internal/pkg/logger"
	"microcommerce/internal/pkg/redis"
	"microcommerce/internal/service/order/domain/port"
)

const (
	productCacheKeyPrefix = "order-service:product:"
	userCacheKeyPrefix    = "order-service:user-exists:"
)

// RedisSnapshotCache 同时实现 ProductCache 和 UserCache。
// 缓存只是加速层：任何读写错误都记一条日志然后当缓存未命中处理，
// 绝不让缓存故障影响下单主链路。
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisSnapshotCache{client: client, ttl: ttl}
}

func (c *RedisSnapshotCache) GetProduct(ctx context.Context, productID string) (*port.ProductSnapshot, bool) {
	val, ok, err := c.client.Get(ctx, productCacheKeyPrefix+productID)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("product_id", productID).Msg("product cache read failure")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var snapshot port.ProductSnapshot
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("product_id", productID).Msg("corrupt product cache entry, dropping")
		_ = c.client.Del(ctx, productCacheKeyPrefix+productID)
		return nil, false
	}
	return &snapshot, true
}

func (c *RedisSnapshotCache) SetProduct(ctx context.Context, snapshot *port.ProductSnapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productCacheKeyPrefix+snapshot.ID, string(payload), c.ttl); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("product_id", snapshot.ID).Msg("product cache write failure")
	}
}

func (c *RedisSnapshotCache) InvalidateProduct(ctx context.Context, productID string) {
	if err := c.client.Del(ctx, productCacheKeyPrefix+productID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("product_id", productID).Msg("product cache invalidation failure")
	}
}

func (c *RedisSnapshotCache) UserExists(ctx context.Context, userID string) bool {
	_, ok, err := c.client.Get(ctx, userCacheKeyPrefix+userID)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("user cache read failure")
		return false
	}
	return ok
}

func (c *RedisSnapshotCache) MarkUserExists(ctx context.Context, userID string) {
	if err := c.client.Set(ctx, userCacheKeyPrefix+userID, "1", c.ttl); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("user cache write failure")
	}
}

func (c *RedisSnapshotCache) InvalidateUser(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, userCacheKeyPrefix+userID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("user cache invalidation failure")
	}
}
