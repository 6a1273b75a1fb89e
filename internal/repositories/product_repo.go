package repositories

import (
	"context"

	"tokocommerce/internal/models"
)

// ProductRepository defines the interface for product (inventory) data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// FindByIDs returns the products whose id is in ids. Unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	// DecrementStock subtracts qty from the product's stock only if enough is
	// available. It fails with a Conflict error otherwise.
	DecrementStock(ctx context.Context, id string, qty int) error
	IncrementStock(ctx context.Context, id string, qty int) error
}
