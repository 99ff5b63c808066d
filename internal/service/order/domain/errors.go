// internal/service/order/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// 订单编排过程中所有对调用方可见的失败种类。
// "不存在" 与 "暂时不可达" 刻意分开，调用方可以对后者重试，但绝不应重试前者。
var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrCatalogUnavailable  = errors.New("product service unavailable")
	ErrIdentityUnavailable = errors.New("user service unavailable")
	ErrIllegalDeletion     = errors.New("delivered orders cannot be deleted")
)

// ValidationError 表示入参没有通过业务校验。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IllegalTransitionError 表示状态机拒绝了一次迁移，消息中带上两端状态。
type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %s to %s", e.From, e.To)
}

// ProductInvalidError 表示某个商品无法用于下单。
// 包装底层原因（ErrProductNotFound 或 ErrCatalogUnavailable），整单原子失败。
type ProductInvalidError struct {
	ProductID string
	Err       error
}

func (e *ProductInvalidError) Error() string {
	return fmt.Sprintf("invalid product %s: %v", e.ProductID, e.Err)
}

func (e *ProductInvalidError) Unwrap() error {
	return e.Err
}
