// internal/service/order/application/dto.go
package application

import (
	"github.com/shopspring/decimal"

	"microcommerce/internal/service/order/domain"
)

// CreateOrderRequest 是创建订单用例的输入数据。
// Price 是指针: nil 表示调用方未给价，下单时用目录当前价填充；
// 显式给出的价格（包括 0）永远不会被覆盖。
type CreateOrderRequest struct {
	UserID string            `json:"userId"`
	Items  []CreateOrderItem `json:"items"`

	ShippingAddress string `json:"shippingAddress,omitempty"`
	ShippingCity    string `json:"shippingCity,omitempty"`
	ShippingZipCode string `json:"shippingZipCode,omitempty"`
	ShippingCountry string `json:"shippingCountry,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

type CreateOrderItem struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// toOrder 把请求转换为待校验、待充实的订单实体。
func (r *CreateOrderRequest) toOrder() *domain.Order {
	items := make([]domain.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		item := domain.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		}
		if it.Price != nil {
			item.Price = *it.Price
		}
		items = append(items, item)
	}

	order := domain.NewOrder(r.UserID, items)
	order.ShippingAddress = r.ShippingAddress
	order.ShippingCity = r.ShippingCity
	order.ShippingZipCode = r.ShippingZipCode
	order.ShippingCountry = r.ShippingCountry
	order.Notes = r.Notes
	return order
}
