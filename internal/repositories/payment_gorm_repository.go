package repositories

import (
	"context"
	"errors"

	"tokocommerce/internal/apperrors"
	"tokocommerce/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{db: db}
}

// GetByOrderID retrieves the payment recorded for an order.
func (r *GORMPaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("payment for order %s not found", orderID)
		}
		return nil, apperrors.Internal(err, "failed to get payment for order %s", orderID)
	}
	return &payment, nil
}

// Create inserts a payment. The unique index on order_id rejects a second one.
func (r *GORMPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return translateError(err, "payment for order %s already exists or could not be stored", payment.OrderID)
	}
	return nil
}
