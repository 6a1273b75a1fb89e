package services

import (
	"context"
	"time"

	"tokocommerce/internal/models"

	"go.uber.org/zap"
)

// EventPublisher publishes domain events. *rabbitmq.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// Routing keys of the events published by the services.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status_updated"
	EventOrderCanceled      = "order.canceled"
	EventPaymentRecorded    = "payment.recorded"
)

type orderEventItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type orderEvent struct {
	OrderID        string           `json:"order_id"`
	UserID         string           `json:"user_id"`
	Status         string           `json:"status"`
	PreviousStatus string           `json:"previous_status,omitempty"`
	TotalAmount    string           `json:"total_amount"`
	Items          []orderEventItem `json:"items,omitempty"`
	Restocked      bool             `json:"restocked,omitempty"`
}

func newOrderEvent(order *models.Order) orderEvent {
	ev := orderEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount.StringFixed(2),
	}
	for _, item := range order.Items {
		ev.Items = append(ev.Items, orderEventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}
	return ev
}

type paymentEvent struct {
	PaymentID string    `json:"payment_id"`
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	PaidAt    time.Time `json:"paid_at"`
}

// publish sends an event after a commit. Failures are logged and never
// returned: the state change has already happened.
func publish(ctx context.Context, events EventPublisher, log *zap.Logger, eventType string, payload any) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, eventType, payload); err != nil {
		log.Warn("failed to publish event", zap.String("event_type", eventType), zap.Error(err))
	}
}
