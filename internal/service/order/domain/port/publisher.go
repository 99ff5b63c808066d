// internal/service/order/domain/port/publisher.go
package port

import (
	"context"

	"microcommerce/internal/service/order/domain"
)

// EventPublisher 把订单变更广播给消息总线。
// 从编排器的视角看发布是 fire-and-forget: 实现负责记录失败，
// 返回的错误只用于调用方计数，绝不会回滚已提交的本地变更。
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	PublishOrderStatusUpdated(ctx context.Context, order *domain.Order) error
	PublishOrderCancelled(ctx context.Context, order *domain.Order) error
	PublishOrderDeleted(ctx context.Context, orderID string) error
}
