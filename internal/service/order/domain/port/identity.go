// internal/service/order/domain/port/identity.go
package port

import "context"

// IdentityService 是用户服务的出站端口。
// Exists 确认用户存在返回 (true, nil)；确认不存在返回 (false, nil)；
// 无法确认时返回 (false, domain.ErrIdentityUnavailable)。
// 本层不做重试。
type IdentityService interface {
	Exists(ctx context.Context, userID string) (bool, error)
}
