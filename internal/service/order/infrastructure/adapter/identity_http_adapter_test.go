// internal/service/order/infrastructure/adapter/identity_http_adapter_test.go
package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microcommerce/internal/service/order/domain"
)

func TestIdentityExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/alice":
			w.WriteHeader(http.StatusOK)
		case "/api/users/ghost":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	identity := NewIdentityHTTPAdapter(newTestClient(), server.URL, 0, nil)

	exists, err := identity.Exists(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	// 确定的 404: 用户不存在，不是基础设施错误
	exists, err = identity.Exists(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, exists)

	// 5xx: 没能确认，必须作为错误上抛
	_, err = identity.Exists(context.Background(), "broken")
	assert.ErrorIs(t, err, domain.ErrIdentityUnavailable)
}

func TestIdentityExists_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	identity := NewIdentityHTTPAdapter(newTestClient(), server.URL, 0, nil)
	_, err := identity.Exists(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrIdentityUnavailable)
}

type mapUserCache struct {
	users map[string]bool
}

func (c *mapUserCache) UserExists(ctx context.Context, userID string) bool { return c.users[userID] }
func (c *mapUserCache) MarkUserExists(ctx context.Context, userID string)  { c.users[userID] = true }
func (c *mapUserCache) InvalidateUser(ctx context.Context, userID string)  { delete(c.users, userID) }

func TestIdentityExists_PositiveResultCached(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path == "/api/users/ghost" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cache := &mapUserCache{users: make(map[string]bool)}
	identity := NewIdentityHTTPAdapter(newTestClient(), server.URL, 0, cache)

	for i := 0; i < 2; i++ {
		exists, err := identity.Exists(context.Background(), "alice")
		require.NoError(t, err)
		assert.True(t, exists)
	}
	assert.Equal(t, 1, calls, "positive result must be cached")

	// 否定结果不缓存，每次都重新探测
	for i := 0; i < 2; i++ {
		exists, err := identity.Exists(context.Background(), "ghost")
		require.NoError(t, err)
		assert.False(t, exists)
	}
	assert.Equal(t, 3, calls)
}
