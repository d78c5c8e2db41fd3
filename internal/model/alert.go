package model

import (
	"time"
)

// Stock alert types
const (
	AlertLowStock = "LOW_STOCK"
)

// StockAlert is raised by the alert scanner when an inventory item drops
// to or below its minimum threshold. At most one unacknowledged alert
// exists per item and type.
type StockAlert struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	RestaurantID    uint      `json:"restaurant_id" gorm:"index;not null"`
	InventoryItemID uint      `json:"inventory_item_id" gorm:"index;not null"`
	Type            string    `json:"type" gorm:"type:varchar(30);not null;default:'LOW_STOCK'"`
	Message         string    `json:"message" gorm:"type:text"`
	Acknowledged    bool      `json:"acknowledged" gorm:"default:false;index"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Relations
	InventoryItem InventoryItem `json:"inventory_item,omitempty" gorm:"foreignKey:InventoryItemID"`
}
