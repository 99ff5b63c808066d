// internal/service/order/interfaces/http_handler_test.go
package interfaces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microcommerce/internal/service/order/application"
	"microcommerce/internal/service/order/domain"
)

// stubService 对每个用例返回预置结果，记录收到的参数。
type stubService struct {
	order  *domain.Order
	orders []*domain.Order
	stats  *domain.OrderStats
	err    error

	gotCreateReq *application.CreateOrderRequest
	gotOrderID   string
	gotStatus    domain.Status
	gotUserID    string
	gotStart     time.Time
	gotEnd       time.Time
	gotCutoff    time.Time
}

func (s *stubService) CreateOrder(ctx context.Context, req *application.CreateOrderRequest) (*domain.Order, error) {
	s.gotCreateReq = req
	return s.order, s.err
}

func (s *stubService) UpdateStatus(ctx context.Context, orderID string, newStatus domain.Status) (*domain.Order, error) {
	s.gotOrderID, s.gotStatus = orderID, newStatus
	return s.order, s.err
}

func (s *stubService) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	s.gotOrderID = orderID
	return s.order, s.err
}

func (s *stubService) DeleteOrder(ctx context.Context, orderID string) error {
	s.gotOrderID = orderID
	return s.err
}

func (s *stubService) GetAllOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.orders, s.err
}

func (s *stubService) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	s.gotOrderID = orderID
	return s.order, s.err
}

func (s *stubService) GetOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	s.gotUserID = userID
	return s.orders, s.err
}

func (s *stubService) GetOrdersByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	s.gotStatus = status
	return s.orders, s.err
}

func (s *stubService) GetOrdersByUserAndStatus(ctx context.Context, userID string, status domain.Status) ([]*domain.Order, error) {
	s.gotUserID, s.gotStatus = userID, status
	return s.orders, s.err
}

func (s *stubService) GetOrdersBetween(ctx context.Context, start, end time.Time) ([]*domain.Order, error) {
	s.gotStart, s.gotEnd = start, end
	return s.orders, s.err
}

func (s *stubService) GetOrdersByProduct(ctx context.Context, productID string) ([]*domain.Order, error) {
	s.gotOrderID = productID
	return s.orders, s.err
}

func (s *stubService) GetPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	s.gotCutoff = cutoff
	return s.orders, s.err
}

func (s *stubService) GetStats(ctx context.Context) (*domain.OrderStats, error) {
	return s.stats, s.err
}

func newTestServer(svc OrderService) *httptest.Server {
	mux := http.NewServeMux()
	NewOrderHandler(svc).RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func sampleOrder() *domain.Order {
	order := domain.NewOrder("user-1", []domain.OrderItem{
		{ProductID: "p1", ProductName: "Widget", Quantity: 1, Price: decimal.RequireFromString("19.99")},
	})
	order.ID = "order-1"
	return order
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestCreateOrderEndpoint(t *testing.T) {
	svc := &stubService{order: sampleOrder()}
	server := newTestServer(svc)
	defer server.Close()

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/orders",
		`{"userId":"user-1","items":[{"productId":"p1","quantity":1}]}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var got domain.Order
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "order-1", got.ID)

	require.NotNil(t, svc.gotCreateReq)
	assert.Equal(t, "user-1", svc.gotCreateReq.UserID)
	require.Len(t, svc.gotCreateReq.Items, 1)
	assert.Nil(t, svc.gotCreateReq.Items[0].Price, "absent price must stay nil")
}

func TestCreateOrderEndpoint_BadJSON(t *testing.T) {
	server := newTestServer(&stubService{})
	defer server.Close()

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/orders", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &domain.ValidationError{Field: "items", Reason: "empty"}, http.StatusBadRequest, "validation_failed"},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
		{"product not found", &domain.ProductInvalidError{ProductID: "p9", Err: domain.ErrProductNotFound}, http.StatusNotFound, "product_not_found"},
		{"catalog unavailable", &domain.ProductInvalidError{ProductID: "p9", Err: domain.ErrCatalogUnavailable}, http.StatusServiceUnavailable, "catalog_unavailable"},
		{"identity unavailable", domain.ErrIdentityUnavailable, http.StatusServiceUnavailable, "identity_unavailable"},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(&stubService{err: tt.err})
			defer server.Close()

			resp, body := doJSON(t, http.MethodPost, server.URL+"/api/orders",
				`{"userId":"u","items":[{"productId":"p1","quantity":1}]}`)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var envelope errorResponse
			require.NoError(t, json.Unmarshal(body, &envelope))
			assert.Equal(t, tt.wantCode, envelope.Error)
			assert.NotEmpty(t, envelope.Message)
		})
	}
}

func TestGetOrderEndpoint(t *testing.T) {
	svc := &stubService{order: sampleOrder()}
	server := newTestServer(svc)
	defer server.Close()

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/orders/order-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "order-1", svc.gotOrderID)
}

func TestGetOrderEndpoint_NotFound(t *testing.T) {
	server := newTestServer(&stubService{err: domain.ErrOrderNotFound})
	defer server.Close()

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/orders/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	svc := &stubService{order: sampleOrder()}
	server := newTestServer(svc)
	defer server.Close()

	resp, _ := doJSON(t, http.MethodPut, server.URL+"/api/orders/order-1/status", `{"status":"CONFIRMED"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "order-1", svc.gotOrderID)
	assert.Equal(t, domain.StatusConfirmed, svc.gotStatus)
}

func TestUpdateStatusEndpoint_UnknownStatus(t *testing.T) {
	svc := &stubService{}
	server := newTestServer(svc)
	defer server.Close()

	resp, _ := doJSON(t, http.MethodPut, server.URL+"/api/orders/order-1/status", `{"status":"SHOUTED"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, svc.gotOrderID, "service must not be called with an unparseable status")
}

func TestUpdateStatusEndpoint_IllegalTransition(t *testing.T) {
	server := newTestServer(&stubService{err: &domain.IllegalTransitionError{From: domain.StatusPending, To: domain.StatusDelivered}})
	defer server.Close()

	resp, body := doJSON(t, http.MethodPut, server.URL+"/api/orders/order-1/status", `{"status":"DELIVERED"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var envelope errorResponse
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "illegal_transition", envelope.Error)
}

func TestCancelEndpoint(t *testing.T) {
	svc := &stubService{order: sampleOrder()}
	server := newTestServer(svc)
	defer server.Close()

	resp, _ := doJSON(t, http.MethodPut, server.URL+"/api/orders/order-1/cancel", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "order-1", svc.gotOrderID)
}

func TestDeleteEndpoint(t *testing.T) {
	svc := &stubService{}
	server := newTestServer(svc)
	defer server.Close()

	resp, _ := doJSON(t, http.MethodDelete, server.URL+"/api/orders/order-1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "order-1", svc.gotOrderID)
}

func TestDeleteEndpoint_DeliveredRefused(t *testing.T) {
	server := newTestServer(&stubService{err: domain.ErrIllegalDeletion})
	defer server.Close()

	resp, body := doJSON(t, http.MethodDelete, server.URL+"/api/orders/order-1", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var envelope errorResponse
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, "illegal_deletion", envelope.Error)
}

func TestListEndpoints(t *testing.T) {
	svc := &stubService{orders: []*domain.Order{sampleOrder()}}
	server := newTestServer(svc)
	defer server.Close()

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/orders", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/orders/user/user-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-1", svc.gotUserID)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/orders/status/SHIPPED", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.StatusShipped, svc.gotStatus)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/orders/user/user-1/status/PENDING", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.StatusPending, svc.gotStatus)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/orders/product/p1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/orders/status/NOPE", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDateRangeEndpoint(t *testing.T) {
	svc := &stubService{orders: []*domain.Order{}}
	server := newTestServer(svc)
	defer server.Close()

	start := "2026-08-01T00:00:00Z"
	end := "2026-08-31T00:00:00Z"
	resp, _ := doJSON(t, http.MethodGet,
		server.URL+"/api/orders/search/date-range?start="+start+"&end="+end, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2026, svc.gotStart.Year())
	assert.Equal(t, time.August, svc.gotEnd.Month())

	// end < start 拒绝
	resp, _ = doJSON(t, http.MethodGet,
		server.URL+"/api/orders/search/date-range?start="+end+"&end="+start, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 缺参数拒绝
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/orders/search/date-range?start="+start, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	svc := &stubService{stats: &domain.OrderStats{TotalOrders: 7, PendingOrders: 2}}
	server := newTestServer(svc)
	defer server.Close()

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/orders/stats", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats domain.OrderStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, int64(7), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.PendingOrders)
}

func TestPendingMonitoringEndpoint(t *testing.T) {
	svc := &stubService{orders: []*domain.Order{}}
	server := newTestServer(svc)
	defer server.Close()

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/orders/monitoring/pending?olderThanMinutes=90", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	wantCutoff := time.Now().UTC().Add(-90 * time.Minute)
	assert.WithinDuration(t, wantCutoff, svc.gotCutoff, 5*time.Second)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/orders/monitoring/pending?olderThanMinutes=-1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	server := newTestServer(&stubService{})
	defer server.Close()

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
