package models

import "time"

// Payment statuses.
const (
	PaymentStatusPaid    = "paid"
	PaymentStatusPending = "pending"
	PaymentStatusFailed  = "failed"
)

// IsValidPaymentStatus reports whether status is one of the known payment statuses.
func IsValidPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusPaid, PaymentStatusPending, PaymentStatusFailed:
		return true
	}
	return false
}

// Payment records the payment of an order. There is at most one per order.
type Payment struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string    `json:"order_id" gorm:"uniqueIndex;type:varchar(36);not null"`
	PaidAt    time.Time `json:"paid_at"`
	Status    string    `json:"status" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `json:"created_at"`
}
