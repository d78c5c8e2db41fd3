package handler

import (
	"errors"
	"net/http"
	"time"

	"tableserve/internal/inventory"
	"tableserve/internal/middleware"
	"tableserve/internal/model"
	"tableserve/pkg/database"
	"tableserve/pkg/logger"
	"tableserve/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryItemRequest defines the structure for inventory creation/update requests
type InventoryItemRequest struct {
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	MinThreshold decimal.Decimal `json:"min_threshold"`
}

// ListInventory handles retrieving all inventory items of the restaurant
func ListInventory(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)

	var items []model.InventoryItem
	query := database.GetDB().Where("restaurant_id = ?", restaurantID)

	// low=true narrows to items at or below their minimum threshold
	if c.QueryParam("low") == "true" {
		query = query.Where("quantity <= min_threshold")
	}

	if result := query.Order("name").Find(&items); result.Error != nil {
		log.Error("Failed to list inventory", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve inventory"})
	}

	return c.JSON(http.StatusOK, items)
}

// GetInventoryItem handles retrieving a single inventory item
func GetInventoryItem(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var item model.InventoryItem
	if result := database.GetDB().Where("restaurant_id = ?", restaurantID).First(&item, id); result.Error != nil {
		log.Error("Inventory item not found", zap.String("inventory_item_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory item not found"})
	}

	return c.JSON(http.StatusOK, item)
}

// CreateInventoryItem handles creating a new inventory item
func CreateInventoryItem(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)

	var req InventoryItemRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Name == "" || req.Unit == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and unit are required"})
	}
	if req.Quantity.IsNegative() || req.MinThreshold.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantities must not be negative"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	item := model.InventoryItem{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Unit:         req.Unit,
		Quantity:     req.Quantity,
		MinThreshold: req.MinThreshold,
	}
	if result := database.GetDB().Create(&item); result.Error != nil {
		log.Error("Failed to create inventory item", zap.String("name", req.Name), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create inventory item"})
	}

	log.Info("Inventory item created",
		zap.Uint("inventory_item_id", item.ID),
		zap.String("name", item.Name))
	return c.JSON(http.StatusCreated, item)
}

// UpdateInventoryItem handles updating an item's name, unit and threshold.
// Quantity is not updatable here; it only moves through AdjustInventory.
func UpdateInventoryItem(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var req InventoryItemRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("inventory_item_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var item model.InventoryItem
	if result := database.GetDB().Where("restaurant_id = ?", restaurantID).First(&item, id); result.Error != nil {
		log.Error("Inventory item not found for update", zap.String("inventory_item_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory item not found"})
	}

	if req.MinThreshold.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "minimum threshold must not be negative"})
	}

	if req.Name != "" {
		item.Name = req.Name
	}
	if req.Unit != "" {
		item.Unit = req.Unit
	}
	item.MinThreshold = req.MinThreshold

	if result := database.GetDB().Save(&item); result.Error != nil {
		log.Error("Failed to update inventory item", zap.String("inventory_item_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update inventory item"})
	}

	return c.JSON(http.StatusOK, item)
}

// AdjustInventory applies a signed quantity delta through the stock ledger
func AdjustInventory(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var req struct {
		Delta decimal.Decimal `json:"delta"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("inventory_item_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var item model.InventoryItem
	if result := database.GetDB().Where("restaurant_id = ?", restaurantID).First(&item, id); result.Error != nil {
		log.Error("Inventory item not found", zap.String("inventory_item_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory item not found"})
	}

	updated, err := inventory.Adjust(c.Request().Context(), database.GetDB(), restaurantID, item.ID, req.Delta)
	if err != nil {
		var stockErr *inventory.InsufficientStockError
		if errors.As(err, &stockErr) {
			log.Warn("Adjustment rejected",
				zap.Uint("inventory_item_id", item.ID),
				zap.String("available", stockErr.Available.String()),
				zap.String("requested", stockErr.Requested.String()))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "insufficient_stock",
				"item":  stockErr.ItemName,
			})
		}
		log.Error("Failed to adjust inventory", zap.String("inventory_item_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to adjust inventory"})
	}

	// Surface a low-stock alert immediately instead of waiting for the scan
	if _, err := inventory.Scan(c.Request().Context(), database.GetDB(), events, restaurantID); err != nil {
		log.Warn("Post-adjustment alert scan failed", zap.Error(err))
	}

	log.Info("Inventory adjusted",
		zap.Uint("inventory_item_id", updated.ID),
		zap.String("delta", req.Delta.String()),
		zap.String("quantity", updated.Quantity.String()))
	return c.JSON(http.StatusOK, updated)
}

// GetInventoryUsage returns the menu items whose recipes consume the item
func GetInventoryUsage(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var item model.InventoryItem
	if result := database.GetDB().Where("restaurant_id = ?", restaurantID).First(&item, id); result.Error != nil {
		log.Error("Inventory item not found", zap.String("inventory_item_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory item not found"})
	}

	names, err := inventory.UsageOf(c.Request().Context(), database.GetDB(), restaurantID, item.ID)
	if err != nil {
		log.Error("Failed to query usage", zap.String("inventory_item_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to query usage"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"inventory_item": item.Name,
		"used_in":        names,
	})
}

// DeleteInventoryItem handles deleting an inventory item. Blocked while any
// recipe line references it.
func DeleteInventoryItem(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var item model.InventoryItem
	if result := database.GetDB().Where("restaurant_id = ?", restaurantID).First(&item, id); result.Error != nil {
		log.Warn("Inventory item not found for deletion", zap.String("inventory_item_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory item not found"})
	}

	names, err := inventory.UsageOf(c.Request().Context(), database.GetDB(), restaurantID, item.ID)
	if err != nil {
		log.Error("Failed to check usage before deletion", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check usage"})
	}
	if len(names) > 0 {
		log.Warn("Inventory item still referenced by recipes",
			zap.Uint("inventory_item_id", item.ID),
			zap.Strings("used_in", names))
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   inventory.ErrItemInUse.Error(),
			"used_in": names,
		})
	}

	if result := database.GetDB().Delete(&item); result.Error != nil {
		log.Error("Failed to delete inventory item", zap.String("inventory_item_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete inventory item"})
	}

	log.Info("Inventory item deleted", zap.Uint("inventory_item_id", item.ID), zap.String("name", item.Name))
	return c.JSON(http.StatusOK, echo.Map{"message": "inventory item deleted"})
}
