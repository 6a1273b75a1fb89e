package repositories

import (
	"context"

	"tokocommerce/internal/models"
)

// PaymentRepository defines the interface for the payment ledger.
type PaymentRepository interface {
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	// Create fails with a Conflict error when a payment already exists for the order.
	Create(ctx context.Context, payment *models.Payment) error
}
