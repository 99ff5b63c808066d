// internal/service/order/infrastructure/adapter/publisher_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"microcommerce/internal/pkg/logger"
	"microcommerce/internal/pkg/metrics"
	"microcommerce/internal/pkg/mq"
	"microcommerce/internal/service/order/domain"
)

// Topology 是事件类型到 topic 的静态映射。
// 进程启动时从配置构造一次，运行期不允许修改。
type Topology struct {
	OrderCreated       string
	OrderStatusUpdated string
	OrderCancelled     string
	OrderDeleted       string
}

// TopicFor 返回事件类型对应的 topic。
func (t Topology) TopicFor(eventType domain.EventType) string {
	switch eventType {
	case domain.EventOrderCreated:
		return t.OrderCreated
	case domain.EventOrderStatusUpdated:
		return t.OrderStatusUpdated
	case domain.EventOrderCancelled:
		return t.OrderCancelled
	case domain.EventOrderDeleted:
		return t.OrderDeleted
	default:
		return ""
	}
}

// KafkaEventPublisher 实现了 port.EventPublisher 接口。
// 每次变更构造一个独立的事件快照再发送，消息 key 用订单 ID，
// 保证同一订单的事件落在同一分区、保持顺序。
type KafkaEventPublisher struct {
	writer   mq.Writer
	topology Topology
}

func NewKafkaEventPublisher(writer mq.Writer, topology Topology) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer, topology: topology}
}

func (p *KafkaEventPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.send(ctx, domain.NewOrderEvent(order, domain.EventOrderCreated))
}

func (p *KafkaEventPublisher) PublishOrderStatusUpdated(ctx context.Context, order *domain.Order) error {
	return p.send(ctx, domain.NewOrderEvent(order, domain.EventOrderStatusUpdated))
}

func (p *KafkaEventPublisher) PublishOrderCancelled(ctx context.Context, order *domain.Order) error {
	return p.send(ctx, domain.NewOrderEvent(order, domain.EventOrderCancelled))
}

func (p *KafkaEventPublisher) PublishOrderDeleted(ctx context.Context, orderID string) error {
	return p.send(ctx, domain.NewOrderDeletedEvent(orderID))
}

func (p *KafkaEventPublisher) send(ctx context.Context, event *domain.OrderEvent) error {
	topic := p.topology.TopicFor(event.EventType)
	if topic == "" {
		return errors.Errorf("no topic configured for event type %s", event.EventType)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		metrics.EventPublishFailures.WithLabelValues(string(event.EventType)).Inc()
		return errors.Wrap(err, "failed to marshal order event")
	}

	if err := mq.ProduceMessage(ctx, p.writer, topic, []byte(event.OrderID), payload); err != nil {
		metrics.EventPublishFailures.WithLabelValues(string(event.EventType)).Inc()
		return errors.Wrapf(err, "failed to publish %s event for order %s", event.EventType, event.OrderID)
	}

	metrics.EventsPublished.WithLabelValues(string(event.EventType)).Inc()
	logger.Ctx(ctx).Debug().Str("order_id", event.OrderID).Str("topic", topic).
		Str("event_type", string(event.EventType)).Msg("order event published")
	return nil
}

// Close 关闭底层的 writer。
func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}
