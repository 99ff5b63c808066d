// internal/service/order/application/service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"microcommerce/internal/pkg/logger"
	"microcommerce/internal/pkg/metrics"
	"microcommerce/internal/service/order/domain"
	"microcommerce/internal/service/order/domain/port"
)

// OrderApplicationService 负责订单用例的编排:
// 跨服务校验、条目充实、状态机流转、持久化和事件发布。
// 它自己不持有任何可变状态，共享状态都在存储层。
type OrderApplicationService struct {
	orderRepo domain.OrderRepository
	catalog   port.ProductCatalog
	identity  port.IdentityService
	publisher port.EventPublisher
	locker    port.OrderLocker
	tracer    trace.Tracer
}

func NewOrderApplicationService(
	orderRepo domain.OrderRepository,
	catalog port.ProductCatalog,
	identity port.IdentityService,
	publisher port.EventPublisher,
	locker port.OrderLocker,
	tracer trace.Tracer,
) *OrderApplicationService {
	return &OrderApplicationService{
		orderRepo: orderRepo,
		catalog:   catalog,
		identity:  identity,
		publisher: publisher,
		locker:    locker,
		tracer:    tracer,
	}
}

// CreateOrder 创建一条新订单。
//
// 步骤按序执行，每一步都是下一步的硬前置条件:
// 校验入参 -> 用户存在性检查 -> 逐条商品查目录并充实 -> 重算总价 ->
// 以 PENDING 状态持久化 -> 发布 CREATED 事件。
// 持久化之前任何一步失败都不会留下半写状态；事件发布失败只记日志，
// 订单照样创建成功 —— 本地记录是权威，事件流是尽力而为的镜像。
func (s *OrderApplicationService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.user_id", req.UserID))

	order := req.toOrder()
	if err := order.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	// 1. 用户存在性检查。无法确认和确认不存在是两种不同的失败。
	exists, err := s.identity.Exists(ctx, order.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	// 2. 逐条充实。目录调用串行执行，整体耗时随条目数线性增长，
	// 调用方需要据此设置自己的超时预算。
	enriched := make([]domain.OrderItem, len(order.Items))
	for i, item := range order.Items {
		snapshot, err := s.catalog.Lookup(ctx, item.ProductID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "product lookup failed")
			return nil, &domain.ProductInvalidError{ProductID: item.ProductID, Err: err}
		}

		item.ProductName = snapshot.Name
		item.ProductCategory = snapshot.Category
		item.ProductDescription = snapshot.Description
		// 只有调用方没给价时才用目录当前价
		if req.Items[i].Price == nil {
			item.Price = snapshot.Price
		}
		enriched[i] = item
	}

	// 3. 替换条目并重算总价
	order.SetItems(enriched)

	// 4. 持久化，存储层分配 ID
	saved, err := s.orderRepo.Save(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist order")
		return nil, err
	}
	metrics.OrdersCreated.Inc()
	logger.Ctx(ctx).Info().Str("order_id", saved.ID).Str("user_id", saved.UserID).
		Str("total", saved.TotalAmount.String()).Msg("order created")

	// 5. 提交之后才发事件，发布失败不回滚
	s.publish(ctx, saved.ID, domain.EventOrderCreated, func(ctx context.Context) error {
		return s.publisher.PublishOrderCreated(ctx, saved)
	})

	return saved, nil
}

// UpdateStatus 把订单迁移到一个新状态。
// 同一订单上的并发变更通过按订单 ID 的锁串行化。
func (s *OrderApplicationService) UpdateStatus(ctx context.Context, orderID string, newStatus domain.Status) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.UpdateStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.target_status", string(newStatus)),
	)

	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if err := order.TransitionTo(newStatus); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	updated, err := s.orderRepo.Save(ctx, order)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	metrics.StatusTransitions.WithLabelValues(string(from), string(newStatus)).Inc()
	logger.Ctx(ctx).Info().Str("order_id", orderID).
		Str("from", string(from)).Str("to", string(newStatus)).Msg("order status updated")

	s.publish(ctx, orderID, domain.EventOrderStatusUpdated, func(ctx context.Context) error {
		return s.publisher.PublishOrderStatusUpdated(ctx, updated)
	})

	return updated, nil
}

// CancelOrder 取消一条仍可取消的订单。
func (s *OrderApplicationService) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.CancelOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if err := order.Cancel(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	cancelled, err := s.orderRepo.Save(ctx, order)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	metrics.StatusTransitions.WithLabelValues(string(from), string(domain.StatusCancelled)).Inc()
	logger.Ctx(ctx).Info().Str("order_id", orderID).Msg("order cancelled")

	s.publish(ctx, orderID, domain.EventOrderCancelled, func(ctx context.Context) error {
		return s.publisher.PublishOrderCancelled(ctx, cancelled)
	})

	return cancelled, nil
}

// DeleteOrder 删除一条订单。已送达的订单是永久历史，拒绝删除。
func (s *OrderApplicationService) DeleteOrder(ctx context.Context, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "app.DeleteOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return err
	}
	defer unlock()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == domain.StatusDelivered {
		span.SetStatus(codes.Error, "delete refused for delivered order")
		return domain.ErrIllegalDeletion
	}

	if err := s.orderRepo.DeleteByID(ctx, orderID); err != nil {
		span.RecordError(err)
		return err
	}
	logger.Ctx(ctx).Info().Str("order_id", orderID).Msg("order deleted")

	// 记录已经删掉了，事件只带 id
	s.publish(ctx, orderID, domain.EventOrderDeleted, func(ctx context.Context) error {
		return s.publisher.PublishOrderDeleted(ctx, orderID)
	})

	return nil
}

// 以下查询是对存储层的纯读透传，不经过状态机。

func (s *OrderApplicationService) GetAllOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.orderRepo.FindAll(ctx)
}

func (s *OrderApplicationService) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orderRepo.FindByID(ctx, orderID)
}

func (s *OrderApplicationService) GetOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orderRepo.FindByUser(ctx, userID)
}

func (s *OrderApplicationService) GetOrdersByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	return s.orderRepo.FindByStatus(ctx, status)
}

func (s *OrderApplicationService) GetOrdersByUserAndStatus(ctx context.Context, userID string, status domain.Status) ([]*domain.Order, error) {
	return s.orderRepo.FindByUserAndStatus(ctx, userID, status)
}

func (s *OrderApplicationService) GetOrdersBetween(ctx context.Context, start, end time.Time) ([]*domain.Order, error) {
	return s.orderRepo.FindByCreatedBetween(ctx, start, end)
}

func (s *OrderApplicationService) GetOrdersByProduct(ctx context.Context, productID string) ([]*domain.Order, error) {
	return s.orderRepo.FindByProductID(ctx, productID)
}

func (s *OrderApplicationService) GetPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	return s.orderRepo.FindPendingOlderThan(ctx, cutoff)
}

// GetStats 统计各状态的订单数量。
// 七个计数并发查询；结果与调用时刻的存储一致，不是全局快照。
func (s *OrderApplicationService) GetStats(ctx context.Context) (*domain.OrderStats, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetStats")
	defer span.End()

	var stats domain.OrderStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.orderRepo.Count(gctx)
		stats.TotalOrders = n
		return err
	})

	counts := map[domain.Status]*int64{
		domain.StatusPending:    &stats.PendingOrders,
		domain.StatusConfirmed:  &stats.ConfirmedOrders,
		domain.StatusProcessing: &stats.ProcessingOrders,
		domain.StatusShipped:    &stats.ShippedOrders,
		domain.StatusDelivered:  &stats.DeliveredOrders,
		domain.StatusCancelled:  &stats.CancelledOrders,
	}
	for status, target := range counts {
		g.Go(func() error {
			n, err := s.orderRepo.CountByStatus(gctx, status)
			*target = n
			return err
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &stats, nil
}

// publish 执行一次事件发布并吞掉失败。
// 本地变更此时已经提交，发布失败只能记录，不能向调用方传播。
func (s *OrderApplicationService) publish(ctx context.Context, orderID string, eventType domain.EventType, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("order_id", orderID).
			Str("event_type", string(eventType)).
			Msg("failed to publish order event, local state is committed and kept")
	}
}
