// internal/service/order/infrastructure/kafka_consumer_test.go
package infrastructure

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

type recordingInvalidator struct {
	products []string
	users    []string
}

func (r *recordingInvalidator) InvalidateProduct(ctx context.Context, productID string) {
	r.products = append(r.products, productID)
}

func (r *recordingInvalidator) InvalidateUser(ctx context.Context, userID string) {
	r.users = append(r.users, userID)
}

func TestHandleProductEvent(t *testing.T) {
	cache := &recordingInvalidator{}
	consumer := NewCacheInvalidationConsumer(nil, nil, cache)
	ctx := context.Background()

	consumer.handleProductEvent(ctx, kafka.Message{Value: []byte(`{"productId":"p1","eventType":"PRICE_CHANGED"}`)})
	assert.Equal(t, []string{"p1"}, cache.products)

	// 坏消息跳过，不 panic 不失效
	consumer.handleProductEvent(ctx, kafka.Message{Value: []byte(`not json`)})
	consumer.handleProductEvent(ctx, kafka.Message{Value: []byte(`{"eventType":"PRICE_CHANGED"}`)})
	assert.Len(t, cache.products, 1)
}

func TestHandleUserEvent(t *testing.T) {
	cache := &recordingInvalidator{}
	consumer := NewCacheInvalidationConsumer(nil, nil, cache)
	ctx := context.Background()

	consumer.handleUserEvent(ctx, kafka.Message{Value: []byte(`{"userId":"u1","eventType":"DELETED"}`)})
	assert.Equal(t, []string{"u1"}, cache.users)

	consumer.handleUserEvent(ctx, kafka.Message{Value: []byte(`{}`)})
	assert.Len(t, cache.users, 1)
}
