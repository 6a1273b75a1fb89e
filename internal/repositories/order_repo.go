package repositories

import (
	"context"

	"tokocommerce/internal/models"
)

// OrderRepository defines the interface for the order ledger.
// Orders are returned with their items, each item's product and the payment.
type OrderRepository interface {
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByUser(ctx context.Context, userID string) ([]models.Order, error)
	// Create stores the order row and its items.
	Create(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id string, status string) error
}
