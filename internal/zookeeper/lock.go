// internal/zookeeper/lock.go
package zookeeper

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
)

const lockRoot = "/order_locks" // 所有订单锁的根节点

// Connect 建立 ZooKeeper 会话并确保锁根节点存在。
func Connect(servers []string) (*zk.Conn, error) {
	conn, _, err := zk.Connect(servers, 10*time.Second)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to zookeeper")
	}
	if err := ensureNode(conn, lockRoot); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func ensureNode(conn *zk.Conn, path string) error {
	exists, _, err := conn.Exists(path)
	if err != nil {
		return errors.Wrapf(err, "failed to check node %s", path)
	}
	if exists {
		return nil
	}
	_, err = conn.Create(path, []byte{}, 0, zk.WorldACL(zk.PermAll))
	if err != nil && err != zk.ErrNodeExists {
		return errors.Wrapf(err, "failed to create node %s", path)
	}
	return nil
}

// DistributedLock 是经典的临时顺序节点锁:
// 在资源路径下创建 ephemeral sequential 节点，序号最小者持锁，
// 其余节点只监听自己的前驱，避免惊群。
type DistributedLock struct {
	conn     *zk.Conn
	path     string
	lockNode string
}

// NewDistributedLock 创建 resourceID 对应的锁实例。
func NewDistributedLock(conn *zk.Conn, resourceID string) (*DistributedLock, error) {
	lockPath := lockRoot + "/" + resourceID
	if err := ensureNode(conn, lockPath); err != nil {
		return nil, err
	}
	return &DistributedLock{conn: conn, path: lockPath}, nil
}

// parseSeq 取出顺序节点名末尾的序号。
// protected 节点名形如 _c_<guid>-lock-<seq>，guid 是随机的，
// 排序只能看序号，绝不能按整个名字做字典序比较。
func parseSeq(node string) (int, error) {
	idx := strings.LastIndex(node, "-")
	if idx < 0 {
		return 0, errors.Errorf("malformed sequential node name: %s", node)
	}
	seq, err := strconv.Atoi(node[idx+1:])
	if err != nil {
		return 0, errors.Wrapf(err, "malformed sequence suffix in node name %s", node)
	}
	return seq, nil
}

// predecessor 按序号找出 myNode 的前驱竞争者。
// myNode 序号最小（持锁）时返回空串。
func predecessor(children []string, myNode string) (string, error) {
	mySeq, err := parseSeq(myNode)
	if err != nil {
		return "", err
	}

	prev := ""
	prevSeq := -1
	for _, child := range children {
		seq, err := parseSeq(child)
		if err != nil {
			// 同一路径下的陌生节点不参与竞争
			continue
		}
		if seq < mySeq && seq > prevSeq {
			prev = child
			prevSeq = seq
		}
	}
	return prev, nil
}

// Lock 阻塞直到持有锁或 ctx 结束。
func (l *DistributedLock) Lock(ctx context.Context) error {
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte{}, zk.WorldACL(zk.PermAll))
	if err != nil {
		return errors.Wrap(err, "failed to create sequential lock node")
	}
	l.lockNode = nodePath

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			l.abandon()
			return errors.Wrap(err, "failed to list lock contenders")
		}

		myNodeName := strings.TrimPrefix(l.lockNode, l.path+"/")
		prev, err := predecessor(children, myNodeName)
		if err != nil {
			l.abandon()
			return err
		}
		if prev == "" {
			// 序号最小，锁到手
			return nil
		}

		exists, _, eventChan, err := l.conn.ExistsW(l.path + "/" + prev)
		if err != nil {
			l.abandon()
			return errors.Wrap(err, "failed to watch previous lock node")
		}
		if !exists {
			// 前驱在 watch 建立前刚好释放，重新竞争
			continue
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-ctx.Done():
			l.abandon()
			return ctx.Err()
		}
	}
}

// Unlock 释放锁。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock held")
	}
	err := l.conn.Delete(l.lockNode, -1)
	l.lockNode = ""
	if err != nil && err != zk.ErrNoNode {
		return errors.Wrap(err, "failed to delete lock node")
	}
	return nil
}

func (l *DistributedLock) abandon() {
	if l.lockNode != "" {
		_ = l.conn.Delete(l.lockNode, -1)
		l.lockNode = ""
	}
}
