package services

import (
	"context"
	"time"

	"tokocommerce/internal/apperrors"
	"tokocommerce/internal/metrics"
	"tokocommerce/internal/models"
	"tokocommerce/internal/repositories"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PaymentService records payments against orders.
type PaymentService struct {
	store   repositories.Store
	events  EventPublisher
	log     *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// NewPaymentService creates a new PaymentService. events, log and m may be nil.
func NewPaymentService(store repositories.Store, events EventPublisher, log *zap.Logger, m *metrics.Metrics) *PaymentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentService{
		store:   store,
		events:  events,
		log:     log,
		metrics: m,
		tracer:  otel.Tracer("toko.payments"),
		now:     time.Now,
	}
}

// RecordPayment creates the single payment of an order. An empty status
// means paid. The order status and amount are left untouched.
func (s *PaymentService) RecordPayment(ctx context.Context, orderID, status string) (payment *models.Payment, err error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.RecordPayment", trace.WithAttributes(
		attribute.String("order.id", orderID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, apperrors.Message(err))
		}
		span.End()
	}()

	if orderID == "" {
		return nil, apperrors.Validation("order_id is required")
	}
	if status == "" {
		status = models.PaymentStatusPaid
	}
	if !models.IsValidPaymentStatus(status) {
		return nil, apperrors.Validation("invalid payment status: %s", status)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Orders().GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	_, err = tx.Payments().GetByOrderID(ctx, orderID)
	switch {
	case err == nil:
		return nil, apperrors.Conflict("payment already exists for order %s", orderID)
	case !apperrors.Is(err, apperrors.KindNotFound):
		return nil, err
	}

	payment = &models.Payment{
		OrderID: orderID,
		PaidAt:  s.now().UTC(),
		Status:  status,
	}
	if err := tx.Payments().Create(ctx, payment); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal(err, "failed to commit payment for order %s", orderID)
	}

	s.metrics.PaymentRecorded(status)
	s.log.Info("payment recorded", zap.String("order_id", orderID), zap.String("status", status))
	publish(ctx, s.events, s.log, EventPaymentRecorded, paymentEvent{
		PaymentID: payment.ID,
		OrderID:   orderID,
		Status:    status,
		PaidAt:    payment.PaidAt,
	})
	return payment, nil
}
