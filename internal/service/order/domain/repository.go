// internal/service/order/domain/repository.go
package domain

import (
	"context"
	"time"
)

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，由基础设施层实现。实现必须保证单文档写入的原子性；
// 除此之外不假设任何跨文档约束。
type OrderRepository interface {
	// Save 持久化一个订单。首次保存时由存储层分配 ID 并回填。
	Save(ctx context.Context, order *Order) (*Order, error)

	// FindByID 按 ID 查找；不存在时返回 ErrOrderNotFound。
	FindByID(ctx context.Context, id string) (*Order, error)

	FindAll(ctx context.Context) ([]*Order, error)
	// FindByUser 返回某用户的订单，按创建时间倒序。
	FindByUser(ctx context.Context, userID string) ([]*Order, error)
	// FindByStatus 返回某状态的订单，按创建时间倒序。
	FindByStatus(ctx context.Context, status Status) ([]*Order, error)
	FindByUserAndStatus(ctx context.Context, userID string, status Status) ([]*Order, error)
	FindByCreatedBetween(ctx context.Context, start, end time.Time) ([]*Order, error)
	// FindByProductID 返回条目中包含指定商品的订单。
	FindByProductID(ctx context.Context, productID string) ([]*Order, error)
	// FindPendingOlderThan 返回在 cutoff 之前创建、至今仍是 PENDING 的订单。
	FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*Order, error)

	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status Status) (int64, error)

	// DeleteByID 删除订单；不存在时返回 ErrOrderNotFound。
	DeleteByID(ctx context.Context, id string) error
}

// OrderStats 是各状态订单数量的即时统计。
// 数值在调用时刻逐个查询，存储并发变更时不保证是同一瞬间的快照。
type OrderStats struct {
	TotalOrders      int64 `json:"totalOrders"`
	PendingOrders    int64 `json:"pendingOrders"`
	ConfirmedOrders  int64 `json:"confirmedOrders"`
	ProcessingOrders int64 `json:"processingOrders"`
	ShippedOrders    int64 `json:"shippedOrders"`
	DeliveredOrders  int64 `json:"deliveredOrders"`
	CancelledOrders  int64 `json:"cancelledOrders"`
}
