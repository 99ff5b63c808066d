// internal/service/order/domain/port/locker.go
package port

import "context"

// OrderLocker 按订单 ID 串行化变更操作。
// 存储层只保证单文档写入原子性，不保证读-改-写序列的互斥，
// 两个并发的状态更新会在存储层互相覆盖，所以在编排层加锁。
type OrderLocker interface {
	// Lock 阻塞直到拿到 orderID 的锁或 ctx 结束；
	// 成功时返回解锁函数。
	Lock(ctx context.Context, orderID string) (func(), error)
}
