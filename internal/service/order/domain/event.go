// internal/service/order/domain/event.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType 标识订单事件的种类。
type EventType string

const (
	EventOrderCreated       EventType = "CREATED"
	EventOrderStatusUpdated EventType = "STATUS_UPDATED"
	EventOrderCancelled     EventType = "CANCELLED"
	EventOrderDeleted       EventType = "DELETED"
)

// OrderEvent 是一次订单变更对外广播的不可变投影。
// 只由事件发布器构造，本地不落库，由下游服务消费。
type OrderEvent struct {
	EventID     string           `json:"eventId"`
	OrderID     string           `json:"orderId"`
	UserID      string           `json:"userId,omitempty"`
	Status      Status           `json:"status,omitempty"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
	Items       []OrderItemEvent `json:"items,omitempty"`
	EventType   EventType        `json:"eventType"`
	Timestamp   time.Time        `json:"timestamp"`
}

// OrderItemEvent 是事件载荷里扁平化的条目投影。
type OrderItemEvent struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// NewOrderEvent 从订单构造一个事件快照。
// 条目被深拷贝成投影，不与活动中的 Order 共享任何可变结构。
func NewOrderEvent(order *Order, eventType EventType) *OrderEvent {
	items := make([]OrderItemEvent, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemEvent{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
		})
	}
	return &OrderEvent{
		EventID:     uuid.New().String(),
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Items:       items,
		EventType:   eventType,
		Timestamp:   time.Now().UTC(),
	}
}

// NewOrderDeletedEvent 构造删除事件。记录已经不在了，事件只携带 id。
func NewOrderDeletedEvent(orderID string) *OrderEvent {
	return &OrderEvent{
		EventID:   uuid.New().String(),
		OrderID:   orderID,
		EventType: EventOrderDeleted,
		Timestamp: time.Now().UTC(),
	}
}
