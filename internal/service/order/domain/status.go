// internal/service/order/domain/status.go
package domain

import "fmt"

// Status 定义了订单的生命周期状态。
//
// 状态机:
//
//	PENDING -> CONFIRMED -> PROCESSING -> SHIPPED -> DELIVERED
//	PENDING/CONFIRMED/PROCESSING -> CANCELLED
//
// DELIVERED 和 CANCELLED 是终态，没有出边。
type Status string

const (
	StatusPending    Status = "PENDING"    // 订单已创建，等待确认；构造时的初始状态
	StatusConfirmed  Status = "CONFIRMED"  // 客户已确认，等待备货
	StatusProcessing Status = "PROCESSING" // 备货中
	StatusShipped    Status = "SHIPPED"    // 已发货，运输途中
	StatusDelivered  Status = "DELIVERED"  // 已送达，正向终态
	StatusCancelled  Status = "CANCELLED"  // 已取消，负向终态
)

// AllStatuses 按生命周期顺序列出全部状态，供统计和校验使用。
var AllStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// CanTransitionTo 判断从当前状态到 target 的迁移是否合法。
// 纯函数，不做任何 I/O；表中没有自环，所以同状态更新总是被拒绝。
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusProcessing || target == StatusCancelled
	case StatusProcessing:
		return target == StatusShipped || target == StatusCancelled
	case StatusShipped:
		return target == StatusDelivered
	default:
		// DELIVERED、CANCELLED 以及任何未知状态都没有出边
		return false
	}
}

// IsFinal 判断是否为终态。
func (s Status) IsFinal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanBeCancelled 判断订单是否还能被取消。
// 注意 SHIPPED 虽然不是终态也不可取消: 货物已经在途，取消不再有意义。
func (s Status) CanBeCancelled() bool {
	return s != StatusShipped && s != StatusDelivered && s != StatusCancelled
}

// ParseStatus 把外部输入解析为已知状态。
func ParseStatus(raw string) (Status, error) {
	for _, s := range AllStatuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown order status: %q", raw)
}
