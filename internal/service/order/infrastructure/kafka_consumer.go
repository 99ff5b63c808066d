// internal/service/order/infrastructure/kafka_consumer.go
package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"microcommerce/internal/pkg/logger"
	"microcommerce/internal/pkg/mq"
)

// ProductChangedEvent 是商品服务发布的变更通知，
// 只关心商品 ID，具体变了什么无所谓，统一失效快照。
type ProductChangedEvent struct {
	ProductID string `json:"productId"`
	EventType string `json:"eventType"`
}

// UserChangedEvent 是用户服务发布的变更通知。
type UserChangedEvent struct {
	UserID    string `json:"userId"`
	EventType string `json:"eventType"`
}

// CacheInvalidator 是消费者需要的最小缓存操作集合。
type CacheInvalidator interface {
	InvalidateProduct(ctx context.Context, productID string)
	InvalidateUser(ctx context.Context, userID string)
}

// CacheInvalidationConsumer 监听上游服务的变更事件，
// 把本地的商品快照/用户存在性缓存打掉，防止用陈旧数据下单。
type CacheInvalidationConsumer struct {
	productReader *kafka.Reader
	userReader    *kafka.Reader
	cache         CacheInvalidator
	wg            sync.WaitGroup
}

func NewCacheInvalidationConsumer(productReader, userReader *kafka.Reader, cache CacheInvalidator) *CacheInvalidationConsumer {
	return &CacheInvalidationConsumer{
		productReader: productReader,
		userReader:    userReader,
		cache:         cache,
	}
}

// Start 启动两条消费循环。长期运行，直到 ctx 取消。
func (c *CacheInvalidationConsumer) Start(ctx context.Context) {
	if c.productReader != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.consume(ctx, c.productReader, c.handleProductEvent)
		}()
	}
	if c.userReader != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.consume(ctx, c.userReader, c.handleUserEvent)
		}()
	}
}

// Stop 关闭 reader 并等待消费循环退出。
func (c *CacheInvalidationConsumer) Stop() {
	if c.productReader != nil {
		_ = c.productReader.Close()
	}
	if c.userReader != nil {
		_ = c.userReader.Close()
	}
	c.wg.Wait()
	logger.Logger.Info().Msg("cache invalidation consumer stopped")
}

func (c *CacheInvalidationConsumer) consume(ctx context.Context, reader *kafka.Reader, handle func(context.Context, kafka.Message)) {
	topic := reader.Config().Topic
	logger.Logger.Info().Str("topic", topic).Msg("cache invalidation consumer started")
	for {
		// 用 FetchMessage 而不是 ReadMessage，处理完再手动提交 offset
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			// Close() 之后 FetchMessage 返回 io.EOF
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			logger.Logger.Error().Err(err).Str("topic", topic).Msg("failed to fetch message, retrying")
			time.Sleep(time.Second)
			continue
		}

		carrier := mq.KafkaHeaderCarrier(msg.Headers)
		msgCtx := otel.GetTextMapPropagator().Extract(ctx, &carrier)
		handle(msgCtx, msg)

		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(msgCtx).Error().Err(err).Str("topic", topic).Msg("failed to commit offset")
		}
	}
}

func (c *CacheInvalidationConsumer) handleProductEvent(ctx context.Context, msg kafka.Message) {
	var event ProductChangedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("malformed product event, skipping")
		return
	}
	if event.ProductID == "" {
		return
	}
	c.cache.InvalidateProduct(ctx, event.ProductID)
	logger.Ctx(ctx).Debug().Str("product_id", event.ProductID).Str("event_type", event.EventType).
		Msg("product snapshot cache invalidated")
}

func (c *CacheInvalidationConsumer) handleUserEvent(ctx context.Context, msg kafka.Message) {
	var event UserChangedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("malformed user event, skipping")
		return
	}
	if event.UserID == "" {
		return
	}
	c.cache.InvalidateUser(ctx, event.UserID)
	logger.Ctx(ctx).Debug().Str("user_id", event.UserID).Str("event_type", event.EventType).
		Msg("user existence cache invalidated")
}
