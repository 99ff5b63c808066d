// internal/service/order/infrastructure/adapter/locker_local_adapter.go
package adapter

import (
	"context"
	"sync"
)

// LocalOrderLocker 是进程内的按键互斥锁，单实例部署的默认选择。
// 每个正在被持有或等待的订单 ID 对应一个容量为 1 的信号量 channel，
// 引用计数归零时从 map 里摘除，长期运行不会积累条目。
type LocalOrderLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

func NewLocalOrderLocker() *LocalOrderLocker {
	return &LocalOrderLocker{locks: make(map[string]*lockEntry)}
}

// Lock 阻塞直到拿到 orderID 的锁或 ctx 结束。
func (l *LocalOrderLocker) Lock(ctx context.Context, orderID string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[orderID]
	if !ok {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		l.locks[orderID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		return func() {
			<-entry.sem
			l.release(orderID, entry)
		}, nil
	case <-ctx.Done():
		l.release(orderID, entry)
		return nil, ctx.Err()
	}
}

func (l *LocalOrderLocker) release(orderID string, entry *lockEntry) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, orderID)
	}
	l.mu.Unlock()
}
