// internal/service/order/infrastructure/adapter/catalog_http_adapter_test.go
package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"microcommerce/internal/pkg/httpclient"
	"microcommerce/internal/service/order/domain"
	"microcommerce/internal/service/order/domain/port"
)

func newTestClient() *httpclient.Client {
	return httpclient.NewClient(otel.Tracer("test"))
}

func TestCatalogLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/internal/p1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"p1","name":"Widget","category":"tools","price":"19.99","stock":7}`))
	}))
	defer server.Close()

	catalog := NewCatalogHTTPAdapter(newTestClient(), server.URL, 0, 0, nil)
	snapshot, err := catalog.Lookup(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", snapshot.Name)
	assert.Equal(t, "tools", snapshot.Category)
	assert.Equal(t, "19.99", snapshot.Price.String())
	assert.Equal(t, 7, snapshot.Stock)
}

func TestCatalogLookup_NotFoundVsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products/internal/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	catalog := NewCatalogHTTPAdapter(newTestClient(), server.URL, 0, 0, nil)

	// 确定的 404 -> 不存在
	_, err := catalog.Lookup(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	// 5xx -> 不可用，绝不能折叠成 "不存在"
	_, err = catalog.Lookup(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.NotErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCatalogLookup_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 地址存在但已关闭

	catalog := NewCatalogHTTPAdapter(newTestClient(), server.URL, 0, 0, nil)
	_, err := catalog.Lookup(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestCatalogLookup_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	catalog := NewCatalogHTTPAdapter(newTestClient(), server.URL, 20*time.Millisecond, 0, nil)
	_, err := catalog.Lookup(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

type mapProductCache struct {
	products map[string]*port.ProductSnapshot
}

func (c *mapProductCache) GetProduct(ctx context.Context, productID string) (*port.ProductSnapshot, bool) {
	s, ok := c.products[productID]
	return s, ok
}

func (c *mapProductCache) SetProduct(ctx context.Context, snapshot *port.ProductSnapshot) {
	c.products[snapshot.ID] = snapshot
}

func (c *mapProductCache) InvalidateProduct(ctx context.Context, productID string) {
	delete(c.products, productID)
}

func TestCatalogLookup_CacheFirst(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"id":"p1","name":"Widget","price":"19.99"}`))
	}))
	defer server.Close()

	cache := &mapProductCache{products: make(map[string]*port.ProductSnapshot)}
	catalog := NewCatalogHTTPAdapter(newTestClient(), server.URL, 0, 0, cache)

	_, err := catalog.Lookup(context.Background(), "p1")
	require.NoError(t, err)
	_, err = catalog.Lookup(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second lookup must be served from cache")
}

func TestCatalogExists_FailsClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products/p1":
			w.WriteHeader(http.StatusOK)
		case "/api/products/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer server.Close()

	catalog := NewCatalogHTTPAdapter(newTestClient(), server.URL, 0, 0, nil)
	assert.True(t, catalog.Exists(context.Background(), "p1"))
	assert.False(t, catalog.Exists(context.Background(), "missing"))
	assert.False(t, catalog.Exists(context.Background(), "broken"))

	server.Close()
	assert.False(t, catalog.Exists(context.Background(), "p1"), "transport failure folds to false")
}
