package handler

import (
	"net/http"

	"tableserve/internal/middleware"
	"tableserve/internal/model"
	"tableserve/pkg/database"
	"tableserve/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MenuItemRequest defines the structure for menu item creation/update requests
type MenuItemRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	PrepMinutes int             `json:"prep_minutes"`
	ImageURL    string          `json:"image_url"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

// RecipeLineRequest is one bill-of-materials line in a recipe update
type RecipeLineRequest struct {
	InventoryItemID uint            `json:"inventory_item_id"`
	Quantity        decimal.Decimal `json:"quantity"`
}

// ListMenuItems handles retrieving the restaurant's menu with optional filtering
func ListMenuItems(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)

	var items []model.MenuItem
	query := database.GetDB().Preload("Recipe").Where("restaurant_id = ?", restaurantID)

	if category := c.QueryParam("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	if result := query.Find(&items); result.Error != nil {
		log.Error("Failed to list menu items", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve menu items"})
	}

	return c.JSON(http.StatusOK, items)
}

// GetMenuItem handles retrieving a single menu item with its recipe
func GetMenuItem(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var item model.MenuItem
	result := database.GetDB().
		Preload("Recipe.InventoryItem").
		Where("restaurant_id = ?", restaurantID).
		First(&item, id)
	if result.Error != nil {
		log.Error("Menu item not found", zap.String("menu_item_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
	}

	return c.JSON(http.StatusOK, item)
}

// CreateMenuItem handles creating a new menu item
func CreateMenuItem(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)

	var req MenuItemRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.Price.IsNegative() {
		log.Warn("Negative price rejected", zap.String("price", req.Price.String()))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must not be negative"})
	}

	item := model.MenuItem{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		PrepMinutes:  req.PrepMinutes,
		ImageURL:     req.ImageURL,
		IsActive:     true,
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if result := database.GetDB().Create(&item); result.Error != nil {
		log.Error("Failed to create menu item", zap.String("name", req.Name), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create menu item"})
	}

	log.Info("Menu item created",
		zap.Uint("menu_item_id", item.ID),
		zap.String("name", item.Name),
		zap.String("price", item.Price.String()))
	return c.JSON(http.StatusCreated, item)
}

// UpdateMenuItem handles updating an existing menu item. Price changes only
// affect future orders; placed orders keep their captured prices.
func UpdateMenuItem(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var req MenuItemRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("menu_item_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var item model.MenuItem
	if result := database.GetDB().Where("restaurant_id = ?", restaurantID).First(&item, id); result.Error != nil {
		log.Error("Menu item not found for update", zap.String("menu_item_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
	}

	if req.Price.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must not be negative"})
	}

	oldPrice := item.Price
	item.Name = req.Name
	item.Description = req.Description
	item.Price = req.Price
	item.Category = req.Category
	item.PrepMinutes = req.PrepMinutes
	item.ImageURL = req.ImageURL
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if result := database.GetDB().Save(&item); result.Error != nil {
		log.Error("Failed to update menu item", zap.String("menu_item_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update menu item"})
	}

	log.Info("Menu item updated",
		zap.Uint("menu_item_id", item.ID),
		zap.String("old_price", oldPrice.String()),
		zap.String("new_price", item.Price.String()))
	return c.JSON(http.StatusOK, item)
}

// SetRecipe replaces a menu item's bill of materials with the given lines
func SetRecipe(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var req struct {
		Lines []RecipeLineRequest `json:"lines"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("menu_item_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var item model.MenuItem
	if result := database.GetDB().Where("restaurant_id = ?", restaurantID).First(&item, id); result.Error != nil {
		log.Error("Menu item not found", zap.String("menu_item_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
	}

	for _, line := range req.Lines {
		if !line.Quantity.IsPositive() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "recipe quantities must be positive"})
		}
	}

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		// All referenced ingredients must belong to the same restaurant
		for _, line := range req.Lines {
			var count int64
			tx.Model(&model.InventoryItem{}).
				Where("restaurant_id = ? AND id = ?", restaurantID, line.InventoryItemID).
				Count(&count)
			if count == 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "unknown inventory item in recipe")
			}
		}

		if err := tx.Where("menu_item_id = ?", item.ID).Delete(&model.MenuItemIngredient{}).Error; err != nil {
			return err
		}
		for _, line := range req.Lines {
			recipeLine := model.MenuItemIngredient{
				MenuItemID:      item.ID,
				InventoryItemID: line.InventoryItemID,
				Quantity:        line.Quantity,
			}
			if err := tx.Create(&recipeLine).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if httpErr, ok := err.(*echo.HTTPError); ok {
			return c.JSON(httpErr.Code, echo.Map{"error": httpErr.Message})
		}
		log.Error("Failed to update recipe", zap.String("menu_item_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update recipe"})
	}

	var updated model.MenuItem
	database.GetDB().Preload("Recipe.InventoryItem").First(&updated, item.ID)
	log.Info("Recipe updated",
		zap.Uint("menu_item_id", item.ID),
		zap.Int("lines", len(req.Lines)))
	return c.JSON(http.StatusOK, updated)
}

// DeleteMenuItem handles deleting a menu item. Blocked while open orders
// reference it; recipe lines are removed with it.
func DeleteMenuItem(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var item model.MenuItem
	if result := database.GetDB().Where("restaurant_id = ?", restaurantID).First(&item, id); result.Error != nil {
		log.Warn("Menu item not found for deletion", zap.String("menu_item_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
	}

	var openRefs int64
	database.GetDB().Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.menu_item_id = ? AND orders.status IN ?", item.ID, model.OpenOrderStatuses()).
		Count(&openRefs)
	if openRefs > 0 {
		log.Warn("Menu item referenced by open orders",
			zap.Uint("menu_item_id", item.ID),
			zap.Int64("open_refs", openRefs))
		return c.JSON(http.StatusConflict, echo.Map{"error": "menu item is part of open orders"})
	}

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("menu_item_id = ?", item.ID).Delete(&model.MenuItemIngredient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
	if err != nil {
		log.Error("Failed to delete menu item", zap.String("menu_item_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete menu item"})
	}

	log.Info("Menu item deleted", zap.Uint("menu_item_id", item.ID), zap.String("name", item.Name))
	return c.JSON(http.StatusOK, echo.Map{"message": "menu item deleted"})
}
