package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the store.
type Product struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string          `json:"name" gorm:"type:varchar(100);not null" validate:"required,min=3,max=100"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(14,2);not null" validate:"gte=0"`
	StockQuantity int             `json:"stock_quantity" gorm:"not null;check:stock_quantity >= 0" validate:"gte=0"`
	SellerID      string          `json:"seller_id" gorm:"type:varchar(36);index"`
	Seller        *User           `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	CategoryID    *string         `json:"category_id,omitempty" gorm:"type:varchar(36);index"`
	Category      *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
