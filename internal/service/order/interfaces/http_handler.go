// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"microcommerce/internal/pkg/logger"
	"microcommerce/internal/service/order/application"
	"microcommerce/internal/service/order/domain"
)

// OrderService 是 HTTP 层对应用层的依赖，按用例列出，方便在测试里替换。
type OrderService interface {
	CreateOrder(ctx context.Context, req *application.CreateOrderRequest) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, newStatus domain.Status) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
	GetAllOrders(ctx context.Context) ([]*domain.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	GetOrdersByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error)
	GetOrdersByUserAndStatus(ctx context.Context, userID string, status domain.Status) ([]*domain.Order, error)
	GetOrdersBetween(ctx context.Context, start, end time.Time) ([]*domain.Order, error)
	GetOrdersByProduct(ctx context.Context, productID string) ([]*domain.Order, error)
	GetPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Order, error)
	GetStats(ctx context.Context) (*domain.OrderStats, error)
}

// OrderHandler 把订单用例暴露为 REST 接口。
type OrderHandler struct {
	service OrderService
}

func NewOrderHandler(service OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/stats", h.getStats)
	mux.HandleFunc("GET /api/orders/search/date-range", h.listOrdersBetween)
	mux.HandleFunc("GET /api/orders/monitoring/pending", h.listStalePendingOrders)
	mux.HandleFunc("GET /api/orders/user/{userId}", h.listOrdersByUser)
	mux.HandleFunc("GET /api/orders/user/{userId}/status/{status}", h.listOrdersByUserAndStatus)
	mux.HandleFunc("GET /api/orders/status/{status}", h.listOrdersByStatus)
	mux.HandleFunc("GET /api/orders/product/{productId}", h.listOrdersByProduct)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.updateStatus)
	mux.HandleFunc("PUT /api/orders/{id}/cancel", h.cancelOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", h.deleteOrder)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)

	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	order, err := h.service.CreateOrder(ctx, &req)
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	order, err := h.service.GetOrderByID(ctx, r.PathValue("id"))
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	orders, err := h.service.GetAllOrders(ctx)
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) listOrdersByUser(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	orders, err := h.service.GetOrdersByUser(ctx, r.PathValue("userId"))
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) listOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	status, err := domain.ParseStatus(r.PathValue("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}
	orders, err := h.service.GetOrdersByStatus(ctx, status)
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) listOrdersByUserAndStatus(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	status, err := domain.ParseStatus(r.PathValue("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}
	orders, err := h.service.GetOrdersByUserAndStatus(ctx, r.PathValue("userId"), status)
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) listOrdersByProduct(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	orders, err := h.service.GetOrdersByProduct(ctx, r.PathValue("productId"))
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// listOrdersBetween 查询创建时间落在 [start, end] 的订单，参数是 RFC3339。
func (h *OrderHandler) listOrdersBetween(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_start", "start must be an RFC3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_end", "end must be an RFC3339 timestamp")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "invalid_range", "end must not be before start")
		return
	}
	orders, err := h.service.GetOrdersBetween(ctx, start, end)
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// listStalePendingOrders 是给监控用的: 找出长时间停在 PENDING 的订单。
func (h *OrderHandler) listStalePendingOrders(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	minutes := 30
	if raw := r.URL.Query().Get("olderThanMinutes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_older_than", "olderThanMinutes must be a positive integer")
			return
		}
		minutes = parsed
	}
	cutoff := time.Now().UTC().Add(-time.Duration(minutes) * time.Minute)
	orders, err := h.service.GetPendingOlderThan(ctx, cutoff)
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) getStats(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	stats, err := h.service.GetStats(ctx)
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	order, err := h.service.UpdateStatus(ctx, r.PathValue("id"), status)
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	order, err := h.service.CancelOrder(ctx, r.PathValue("id"))
	if err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	if err := h.service.DeleteOrder(ctx, r.PathValue("id")); err != nil {
		h.writeDomainError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeDomainError 把领域错误翻译成 HTTP 状态码。
// 未识别的错误一律 500，不向外泄露内部细节。
func (h *OrderHandler) writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	var transitionErr *domain.IllegalTransitionError
	var productErr *domain.ProductInvalidError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_failed", validationErr.Error())
	case errors.As(err, &transitionErr):
		writeError(w, http.StatusConflict, "illegal_transition", transitionErr.Error())
	case errors.Is(err, domain.ErrIllegalDeletion):
		writeError(w, http.StatusConflict, "illegal_deletion", "delivered orders cannot be deleted")
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", "order does not exist")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", "user does not exist")
	case errors.Is(err, domain.ErrProductNotFound):
		msg := "product does not exist"
		if errors.As(err, &productErr) {
			msg = productErr.Error()
		}
		writeError(w, http.StatusNotFound, "product_not_found", msg)
	case errors.Is(err, domain.ErrCatalogUnavailable):
		writeError(w, http.StatusServiceUnavailable, "catalog_unavailable", "product service could not be reached")
	case errors.Is(err, domain.ErrIdentityUnavailable):
		writeError(w, http.StatusServiceUnavailable, "identity_unavailable", "user service could not be reached")
	default:
		logger.Ctx(ctx).Error().Err(err).Msg("unhandled error in order handler")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func extractTraceContext(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
