package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem represents a sellable dish or drink
type MenuItem struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	RestaurantID uint            `json:"restaurant_id" gorm:"index;not null"`
	Name         string          `json:"name" gorm:"type:varchar(255);not null"`
	Description  string          `json:"description" gorm:"type:text"`
	Price        decimal.Decimal `json:"price" gorm:"not null;type:decimal(10,2)"`
	Category     string          `json:"category" gorm:"type:varchar(100);index"`
	PrepMinutes  int             `json:"prep_minutes" gorm:"default:0"`
	ImageURL     string          `json:"image_url" gorm:"type:varchar(512)"`
	IsActive     bool            `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `json:"-" gorm:"index"`

	// Relations
	Recipe []MenuItemIngredient `json:"recipe,omitempty" gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE"`
}

// MenuItemIngredient is one recipe line: the quantity of an inventory item
// consumed per unit of the menu item sold. All lines of a menu item form
// its bill of materials.
type MenuItemIngredient struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	MenuItemID      uint            `json:"menu_item_id" gorm:"uniqueIndex:idx_recipe_menu_inventory;not null"`
	InventoryItemID uint            `json:"inventory_item_id" gorm:"uniqueIndex:idx_recipe_menu_inventory;not null"`
	Quantity        decimal.Decimal `json:"quantity" gorm:"not null;type:decimal(12,3)"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relations
	InventoryItem InventoryItem `json:"inventory_item,omitempty" gorm:"foreignKey:InventoryItemID"`
}
