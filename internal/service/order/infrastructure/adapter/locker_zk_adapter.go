// internal/service/order/infrastructure/adapter/locker_zk_adapter.go
package adapter

import (
	"context"

	"github.com/go-zookeeper/zk"

	"microcommerce/internal/pkg/logger"
	"microcommerce/internal/zookeeper"
)

// ZookeeperOrderLocker 用 ZooKeeper 临时顺序节点实现跨实例的订单锁，
// 多副本部署时替换 LocalOrderLocker。
type ZookeeperOrderLocker struct {
	conn *zk.Conn
}

func NewZookeeperOrderLocker(conn *zk.Conn) *ZookeeperOrderLocker {
	return &ZookeeperOrderLocker{conn: conn}
}

// Lock 阻塞直到持有 orderID 的分布式锁或 ctx 结束。
func (l *ZookeeperOrderLocker) Lock(ctx context.Context, orderID string) (func(), error) {
	lock, err := zookeeper.NewDistributedLock(l.conn, orderID)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(ctx); err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Msg("failed to release order lock")
		}
	}, nil
}
