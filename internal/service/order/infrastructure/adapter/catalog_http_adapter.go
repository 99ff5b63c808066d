// internal/service/order/infrastructure/adapter/catalog_http_adapter.go
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
	"microcommerce/internal/service/order/domain/port"
)

// ProductCache 是目录快照的本地缓存端口。实现可以为 nil 能力缺席，
// 适配器在 cache 为 nil 时直接打后端。
type ProductCache interface {
	GetProduct(ctx context.Context, productID string) (*port.ProductSnapshot, bool)
	SetProduct(ctx context.Context, snapshot *port.ProductSnapshot)
	InvalidateProduct(ctx context.Context, productID string)
}

// CatalogHTTPAdapter 实现了 port.ProductCatalog 接口。
// 每次调用都有独立的超时上限；超时或传输错误归类为
// ErrCatalogUnavailable，与确定的 404 严格区分。
type CatalogHTTPAdapter struct {
	client        *httpclient.Client
	baseURL       string
	lookupTimeout time.Duration
	existsTimeout time.Duration
	cache         ProductCache
}

// NewCatalogHTTPAdapter 创建商品目录适配器。cache 可以为 nil。
func NewCatalogHTTPAdapter(client *httpclient.Client, baseURL string, lookupTimeout, existsTimeout time.Duration, cache ProductCache) *CatalogHTTPAdapter {
	if lookupTimeout <= 0 {
		lookupTimeout = 5 * time.Second
	}
	if existsTimeout <= 0 {
		existsTimeout = 3 * time.Second
	}
	return &CatalogHTTPAdapter{
		client:        client,
		baseURL:       baseURL,
		lookupTimeout: lookupTimeout,
		existsTimeout: existsTimeout,
		cache:         cache,
	}
}

// Lookup 获取商品快照，优先读缓存。
func (a *CatalogHTTPAdapter) Lookup(ctx context.Context, productID string) (*port.ProductSnapshot, error) {
	if a.cache != nil {
		if snapshot, ok := a.cache.GetProduct(ctx, productID); ok {
			return snapshot, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
	defer cancel()

	start := time.Now()
	var snapshot port.ProductSnapshot
	status, err := a.client.GetJSON(callCtx, fmt.Sprintf("%s/api/products/internal/%s", a.baseURL, productID), &snapshot)
	metrics.GatewayRequestDuration.WithLabelValues("catalog", "lookup").Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("product_id", productID).Msg("product lookup transport failure")
		return nil, domain.ErrCatalogUnavailable
	}
	switch {
	case status == http.StatusOK:
		if a.cache != nil {
			a.cache.SetProduct(ctx, &snapshot)
		}
		return &snapshot, nil
	case status == http.StatusNotFound:
		return nil, domain.ErrProductNotFound
	default:
		logger.Ctx(ctx).Warn().Int("status", status).Str("product_id", productID).Msg("unexpected product service response")
		return nil, domain.ErrCatalogUnavailable
	}
}

// Exists 是便宜的存在性探测。任何错误都折叠为 false:
// 目录打不通时，对未知商品下单宁可安全失败也不挂起。
func (a *CatalogHTTPAdapter) Exists(ctx context.Context, productID string) bool {
	callCtx, cancel := context.WithTimeout(ctx, a.existsTimeout)
	defer cancel()

	start := time.Now()
	status, err := a.client.GetJSON(callCtx, fmt.Sprintf("%s/api/products/%s", a.baseURL, productID), nil)
	metrics.GatewayRequestDuration.WithLabelValues("catalog", "exists").Observe(time.Since(start).Seconds())

	if err != nil {
		return false
	}
	return status >= 200 && status < 300
}
