// internal/service/order/domain/port/catalog.go
package port

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProductSnapshot 是商品目录在某一时刻返回的商品信息。
// 下单时被拷贝进订单条目，之后不再刷新。
type ProductSnapshot struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

// ProductCatalog 是商品服务的出站端口。
//
// Lookup 失败时返回 domain.ErrProductNotFound（确定不存在）或
// domain.ErrCatalogUnavailable（超时/传输错误），二者必须可区分。
// Exists 是更便宜的存在性探测，任何错误都折叠为 false（fail-closed）。
type ProductCatalog interface {
	Lookup(ctx context.Context, productID string) (*ProductSnapshot, error)
	Exists(ctx context.Context, productID string) bool
}
