// internal/service/order/infrastructure/adapter/identity_http_adapter.go
package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"microcommerce/internal/pkg/httpclient"
	"microcommerce/internal/pkg/logger"
	"microcommerce/internal/pkg/metrics"
	"microcommerce/internal/service/order/domain"
)

// UserCache 缓存已确认存在的用户，降低重复下单时对用户服务的压力。
type UserCache interface {
	UserExists(ctx context.Context, userID string) bool
	MarkUserExists(ctx context.Context, userID string)
	InvalidateUser(ctx context.Context, userID string)
}

// IdentityHTTPAdapter 实现了 port.IdentityService 接口。
// 传输失败返回 ErrIdentityUnavailable，让编排器能区分
// "用户不存在" 和 "没能确认"。
type IdentityHTTPAdapter struct {
	client        *httpclient.Client
	baseURL       string
	existsTimeout time.Duration
	cache         UserCache
}

// NewIdentityHTTPAdapter 创建用户服务适配器。cache 可以为 nil。
func NewIdentityHTTPAdapter(client *httpclient.Client, baseURL string, existsTimeout time.Duration, cache UserCache) *IdentityHTTPAdapter {
	if existsTimeout <= 0 {
		existsTimeout = 3 * time.Second
	}
	return &IdentityHTTPAdapter{
		client:        client,
		baseURL:       baseURL,
		existsTimeout: existsTimeout,
		cache:         cache,
	}
}

// Exists 探测用户是否存在。只缓存肯定的结果，"不存在" 不缓存，
// 新注册用户的第一单不应该被一条陈旧的否定答案挡住。
func (a *IdentityHTTPAdapter) Exists(ctx context.Context, userID string) (bool, error) {
	if a.cache != nil && a.cache.UserExists(ctx, userID) {
		return true, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, a.existsTimeout)
	defer cancel()

	start := time.Now()
	status, err := a.client.GetJSON(callCtx, fmt.Sprintf("%s/api/users/%s", a.baseURL, userID), nil)
	metrics.GatewayRequestDuration.WithLabelValues("identity", "exists").Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("user existence probe transport failure")
		return false, domain.ErrIdentityUnavailable
	}
	switch {
	case status >= 200 && status < 300:
		if a.cache != nil {
			a.cache.MarkUserExists(ctx, userID)
		}
		return true, nil
	case status == http.StatusNotFound:
		return false, nil
	default:
		return false, domain.ErrIdentityUnavailable
	}
}
