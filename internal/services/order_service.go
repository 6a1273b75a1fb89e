package services

import (
	"context"
	"time"

	"tokocommerce/internal/apperrors"
	"tokocommerce/internal/auth"
	"tokocommerce/internal/idempotency"
	"tokocommerce/internal/metrics"
	"tokocommerce/internal/models"
	"tokocommerce/internal/repositories"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OrderOptions tunes OrderService behavior.
type OrderOptions struct {
	// RestockOnCancel returns line item quantities to inventory when an order
	// is canceled.
	RestockOnCancel bool
	// Idempotency, when set, lets PlaceOrderWithKey replay earlier results.
	Idempotency    idempotency.Store
	IdempotencyTTL time.Duration
}

// OrderService implements the order placement workflow and order lifecycle.
type OrderService struct {
	store   repositories.Store
	events  EventPublisher
	log     *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	opts    OrderOptions
}

// NewOrderService creates a new OrderService. events, log and m may be nil.
func NewOrderService(store repositories.Store, events EventPublisher, log *zap.Logger, m *metrics.Metrics, opts OrderOptions) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	return &OrderService{
		store:   store,
		events:  events,
		log:     log,
		metrics: m,
		tracer:  otel.Tracer("toko.orders"),
		opts:    opts,
	}
}

func validateItems(items []models.OrderItemRequest) error {
	if len(items) == 0 {
		return apperrors.Validation("items are required")
	}
	for i, item := range items {
		if item.ProductID == "" {
			return apperrors.Validation("item %d: product_id is required", i)
		}
		if item.Quantity <= 0 {
			return apperrors.Validation("item %d: quantity must be greater than 0", i)
		}
	}
	return nil
}

// asConflict reports a persistence failure inside the placement transaction.
func asConflict(err error, format string, args ...any) error {
	if apperrors.Is(err, apperrors.KindConflict) {
		return err
	}
	return apperrors.Wrap(apperrors.KindConflict, err, format, args...)
}

// PlaceOrder validates stock, prices and persists a new pending order and
// decrements inventory, all in one transaction. A product requested on
// several lines is checked against the sum of its quantities; each line stays
// a separate order item.
func (s *OrderService) PlaceOrder(ctx context.Context, identity auth.Identity, items []models.OrderItemRequest) (order *models.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(
		attribute.String("user.id", identity.UserID),
		attribute.Int("order.lines", len(items)),
	))
	start := time.Now()
	defer func() {
		elapsed := time.Since(start).Seconds()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, apperrors.Message(err))
			s.metrics.OrderFailed(apperrors.KindOf(err).String(), elapsed)
			if apperrors.KindOf(err) == apperrors.KindInternal {
				s.log.Error("order placement failed", zap.String("user_id", identity.UserID), zap.Error(err))
			}
		} else {
			span.SetAttributes(attribute.String("order.id", order.ID))
			s.metrics.OrderPlaced(elapsed)
		}
		span.End()
	}()

	if identity.UserID == "" {
		return nil, apperrors.Unauthorized("user not found")
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}

	requested := make(map[string]int, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, seen := requested[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		requested[item.ProductID] += item.Quantity
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	products, err := tx.Products().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	if len(byID) != len(ids) {
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				return nil, apperrors.NotFound("product with ID %s not found", id)
			}
		}
	}

	total := decimal.Zero
	lines := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, apperrors.NotFound("product with ID %s not found", item.ProductID)
		}
		if product.StockQuantity < requested[item.ProductID] {
			return nil, apperrors.InsufficientStock("not enough stock for product %s (requested: %d, available: %d)",
				product.Name, requested[item.ProductID], product.StockQuantity)
		}
		line := models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		}
		total = total.Add(line.LineTotal())
		lines = append(lines, line)
	}

	order = &models.Order{
		UserID:      identity.UserID,
		TotalAmount: total,
		Status:      models.OrderStatusPending,
		Items:       lines,
	}
	if err := tx.Orders().Create(ctx, order); err != nil {
		return nil, asConflict(err, "failed to create order")
	}
	for _, line := range order.Items {
		if err := tx.Products().DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			return nil, asConflict(err, "failed to decrement stock for product %s", line.ProductID)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, asConflict(err, "failed to commit order")
	}

	for i := range order.Items {
		p := byID[order.Items[i].ProductID]
		p.StockQuantity -= requested[p.ID]
		order.Items[i].Product = &p
	}

	s.log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
		zap.Int("lines", len(order.Items)),
	)
	publish(ctx, s.events, s.log, EventOrderCreated, newOrderEvent(order))
	return order, nil
}

// PlaceOrderWithKey is PlaceOrder guarded by an idempotency key. The key is
// reserved before anything is placed. When it already names an order of the
// same user, that order is returned with replayed=true; while another request
// holding the key is still in flight the call fails with Conflict.
func (s *OrderService) PlaceOrderWithKey(ctx context.Context, identity auth.Identity, key string, items []models.OrderItemRequest) (order *models.Order, replayed bool, err error) {
	if key == "" || s.opts.Idempotency == nil || identity.UserID == "" {
		order, err = s.PlaceOrder(ctx, identity, items)
		return order, false, err
	}

	scoped := identity.UserID + ":" + key
	orderID, reserved, err := s.opts.Idempotency.Reserve(ctx, scoped, idempotency.PendingTTL)
	if err != nil {
		s.log.Warn("idempotency reservation failed, placing without key", zap.String("key", key), zap.Error(err))
		order, err = s.PlaceOrder(ctx, identity, items)
		return order, false, err
	}
	if !reserved {
		if orderID == "" {
			return nil, false, apperrors.Conflict("a request with idempotency key %s is still in progress", key)
		}
		existing, err := s.store.Orders().GetByID(ctx, orderID)
		if err != nil {
			return nil, false, err
		}
		return existing, true, nil
	}

	order, err = s.PlaceOrder(ctx, identity, items)
	if err != nil {
		if relErr := s.opts.Idempotency.Release(context.WithoutCancel(ctx), scoped); relErr != nil {
			s.log.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
		}
		return nil, false, err
	}
	if err := s.opts.Idempotency.Complete(context.WithoutCancel(ctx), scoped, order.ID, s.opts.IdempotencyTTL); err != nil {
		s.log.Warn("failed to store idempotency key", zap.String("key", key), zap.Error(err))
	}
	return order, false, nil
}

// UpdateOrderStatus sets the status of an order. Canceled is terminal, and
// setting canceled goes through the same path as CancelOrder so the restock
// rule applies once.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	if !models.IsValidOrderStatus(status) {
		return nil, apperrors.Validation("invalid order status: %s", status)
	}
	if status == models.OrderStatusCanceled {
		return s.cancel(ctx, auth.Identity{Role: models.RoleAdmin}, orderID)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := tx.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status == models.OrderStatusCanceled {
		return nil, apperrors.Conflict("order %s is canceled and cannot change status", orderID)
	}
	if err := tx.Orders().UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal(err, "failed to commit status update for order %s", orderID)
	}

	updated, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.metrics.StatusUpdated(status)
	s.log.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", current.Status),
		zap.String("to", status),
	)
	ev := newOrderEvent(updated)
	ev.PreviousStatus = current.Status
	publish(ctx, s.events, s.log, EventOrderStatusUpdated, ev)
	return updated, nil
}

// CancelOrder cancels an order owned by identity, or any order for an admin.
// Stock goes back to inventory only when RestockOnCancel is set.
func (s *OrderService) CancelOrder(ctx context.Context, identity auth.Identity, orderID string) (*models.Order, error) {
	return s.cancel(ctx, identity, orderID)
}

func (s *OrderService) cancel(ctx context.Context, identity auth.Identity, orderID string) (*models.Order, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := tx.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !identity.CanAccess(current.UserID) {
		return nil, apperrors.Forbidden("not allowed to cancel order %s", orderID)
	}
	if current.Status == models.OrderStatusCanceled {
		return nil, apperrors.Conflict("order %s is already canceled", orderID)
	}
	if err := tx.Orders().UpdateStatus(ctx, orderID, models.OrderStatusCanceled); err != nil {
		return nil, err
	}
	if s.opts.RestockOnCancel {
		for _, item := range current.Items {
			if err := tx.Products().IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return nil, err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal(err, "failed to commit cancellation of order %s", orderID)
	}

	canceled, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.metrics.StatusUpdated(models.OrderStatusCanceled)
	s.log.Info("order canceled",
		zap.String("order_id", orderID),
		zap.String("by", identity.UserID),
		zap.Bool("restocked", s.opts.RestockOnCancel),
	)
	ev := newOrderEvent(canceled)
	ev.PreviousStatus = current.Status
	ev.Restocked = s.opts.RestockOnCancel
	publish(ctx, s.events, s.log, EventOrderCanceled, ev)
	return canceled, nil
}

// ListOrdersForUser returns the orders placed by identity, oldest first.
func (s *OrderService) ListOrdersForUser(ctx context.Context, identity auth.Identity) ([]models.Order, error) {
	if identity.UserID == "" {
		return nil, apperrors.Unauthorized("user not found")
	}
	return s.store.Orders().GetByUser(ctx, identity.UserID)
}

// ListAllOrders returns every order. Admin only.
func (s *OrderService) ListAllOrders(ctx context.Context, identity auth.Identity) ([]models.Order, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.Forbidden("admin role required")
	}
	return s.store.Orders().GetAll(ctx)
}

// GetOrder returns one order to its owner or an admin.
func (s *OrderService) GetOrder(ctx context.Context, identity auth.Identity, orderID string) (*models.Order, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !identity.CanAccess(order.UserID) {
		return nil, apperrors.Forbidden("not allowed to view order %s", orderID)
	}
	return order, nil
}
