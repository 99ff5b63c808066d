// internal/service/order/domain/order.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order 是订单聚合的根实体。
// TotalAmount 是派生值，任何改动 items 的路径都必须经过 CalculateTotal，
// 保证它始终等于 Σ(price × quantity)。
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Items       []OrderItem     `json:"items"`
	Status      Status          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// 配送信息和备注是透传数据，除存在性外不做校验
	ShippingAddress string `json:"shippingAddress,omitempty"`
	ShippingCity    string `json:"shippingCity,omitempty"`
	ShippingZipCode string `json:"shippingZipCode,omitempty"`
	ShippingCountry string `json:"shippingCountry,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// OrderItem 是订单内嵌的值对象，不能独立寻址。
// ProductName/ProductCategory/ProductDescription 是下单时刻商品目录的快照，
// 之后商品怎么变都不会回写 —— 订单要展示的是客户下单时看到的东西。
type OrderItem struct {
	ProductID          string          `json:"productId"`
	ProductName        string          `json:"productName"`
	ProductCategory    string          `json:"productCategory,omitempty"`
	ProductDescription string          `json:"productDescription,omitempty"`
	Quantity           int             `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
}

// Subtotal 返回该条目的小计 price × quantity。
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrder 创建一个处于初始状态的订单。
// 状态固定为 PENDING，不由调用方选择。
func NewOrder(userID string, items []OrderItem) *Order {
	now := time.Now().UTC()
	o := &Order{
		UserID:    userID,
		Items:     items,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.CalculateTotal()
	return o
}

// Validate 校验创建订单的硬性前置条件。
func (o *Order) Validate() error {
	if o.UserID == "" {
		return &ValidationError{Field: "userId", Reason: "user id is required"}
	}
	if len(o.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "an order must contain at least one item"}
	}
	for _, item := range o.Items {
		if item.ProductID == "" {
			return &ValidationError{Field: "items.productId", Reason: "product id is required"}
		}
		if item.Quantity < 1 {
			return &ValidationError{Field: "items.quantity", Reason: "quantity must be at least 1 for product " + item.ProductID}
		}
		if item.Price.IsNegative() {
			return &ValidationError{Field: "items.price", Reason: "unit price cannot be negative for product " + item.ProductID}
		}
	}
	return nil
}

// CalculateTotal 根据当前条目重算总价。
func (o *Order) CalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	o.TotalAmount = total
	o.UpdatedAt = time.Now().UTC()
}

// SetItems 替换条目列表并重算总价。重算不是可选项，是被维护的不变量。
func (o *Order) SetItems(items []OrderItem) {
	o.Items = items
	o.CalculateTotal()
}

// TransitionTo 尝试把订单迁移到 target 状态。
// 这是写 Status 字段的唯一合法路径（Cancel 除外）。
func (o *Order) TransitionTo(target Status) error {
	if !o.Status.CanTransitionTo(target) {
		return &IllegalTransitionError{From: o.Status, To: target}
	}
	o.Status = target
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel 在仍可取消时把订单置为 CANCELLED。
func (o *Order) Cancel() error {
	if !o.Status.CanBeCancelled() {
		return &IllegalTransitionError{From: o.Status, To: StatusCancelled}
	}
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now().UTC()
	return nil
}
