package repositories

import (
	"context"
	"errors"
	"time"

	"tokocommerce/internal/apperrors"
	"tokocommerce/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func (r *GORMOrderRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		Preload("Items.Product").
		Preload("Payment")
}

// GetAll retrieves every order.
func (r *GORMOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.withDetails(ctx).Order("created_at, id").Find(&orders).Error; err != nil {
		return nil, apperrors.Internal(err, "failed to get all orders")
	}
	return orders, nil
}

// GetByID retrieves a single order by its ID.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.withDetails(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order with ID %s not found", id)
		}
		return nil, apperrors.Internal(err, "failed to get order by ID %s", id)
	}
	return &order, nil
}

// GetByUser retrieves the orders placed by userID.
func (r *GORMOrderRepository) GetByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.withDetails(ctx).
		Where("user_id = ?", userID).
		Order("created_at, id").
		Find(&orders).Error; err != nil {
		return nil, apperrors.Internal(err, "failed to get orders for user %s", userID)
	}
	return orders, nil
}

// Create inserts the order row, then its items.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(order).Error; err != nil {
		return translateError(err, "failed to create order")
	}
	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.OrderID = order.ID
		item.LineNo = i + 1
	}
	if len(order.Items) > 0 {
		if err := db.Omit(clause.Associations).Create(&order.Items).Error; err != nil {
			return translateError(err, "failed to create order items")
		}
	}
	return nil
}

// UpdateStatus updates the status of an order.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return apperrors.Internal(res.Error, "failed to update status of order %s", id)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("order with ID %s not found for status update", id)
	}
	return nil
}
