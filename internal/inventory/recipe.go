package inventory

import (
	"context"

	"tableserve/internal/model"

	"gorm.io/gorm"
)

// BOMFor returns the bill of materials of a menu item: the recipe lines
// naming each consumed inventory item and its quantity per unit sold.
// An empty result is valid; such a menu item sells with no stock impact.
func BOMFor(ctx context.Context, db *gorm.DB, menuItemID uint) ([]model.MenuItemIngredient, error) {
	var lines []model.MenuItemIngredient
	err := db.WithContext(ctx).
		Where("menu_item_id = ?", menuItemID).
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// BOMForAll returns the recipe lines of several menu items in one query,
// keyed by menu item ID. Menu items without recipes get no entry.
func BOMForAll(ctx context.Context, db *gorm.DB, menuItemIDs []uint) (map[uint][]model.MenuItemIngredient, error) {
	var lines []model.MenuItemIngredient
	err := db.WithContext(ctx).
		Where("menu_item_id IN ?", menuItemIDs).
		Find(&lines).Error
	if err != nil {
		return nil, err
	}

	boms := make(map[uint][]model.MenuItemIngredient, len(menuItemIDs))
	for _, line := range lines {
		boms[line.MenuItemID] = append(boms[line.MenuItemID], line)
	}
	return boms, nil
}

// UsageOf returns the names of menu items whose recipes reference the
// inventory item. Staff see this before deleting an ingredient, and a
// non-empty result blocks the deletion.
func UsageOf(ctx context.Context, db *gorm.DB, restaurantID uint, inventoryItemID uint) ([]string, error) {
	var names []string
	err := db.WithContext(ctx).
		Model(&model.MenuItem{}).
		Joins("JOIN menu_item_ingredients ON menu_item_ingredients.menu_item_id = menu_items.id").
		Where("menu_items.restaurant_id = ? AND menu_item_ingredients.inventory_item_id = ?", restaurantID, inventoryItemID).
		Pluck("menu_items.name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
