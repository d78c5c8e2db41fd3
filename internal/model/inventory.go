package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryItem holds the authoritative stock quantity of one ingredient.
// Quantity is only ever mutated through the stock ledger and never goes
// negative after a committed operation.
type InventoryItem struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	RestaurantID uint            `json:"restaurant_id" gorm:"index;not null"`
	Name         string          `json:"name" gorm:"type:varchar(255);not null"`
	Unit         string          `json:"unit" gorm:"type:varchar(50);not null"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"not null;type:decimal(12,3);default:0"`
	MinThreshold decimal.Decimal `json:"min_threshold" gorm:"not null;type:decimal(12,3);default:0"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `json:"-" gorm:"index"`
}
