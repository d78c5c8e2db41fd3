package handler

import (
	"errors"
	"net/http"

	"tableserve/internal/inventory"
	"tableserve/internal/middleware"
	"tableserve/internal/model"
	"tableserve/internal/ordering"
	"tableserve/pkg/database"
	"tableserve/pkg/logger"
	"tableserve/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListOrders handles retrieving the restaurant's orders with optional filtering
func ListOrders(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)

	var ordersList []model.Order
	query := database.GetDB().Preload("Items").Where("restaurant_id = ?", restaurantID)

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if tableID := c.QueryParam("table_id"); tableID != "" {
		query = query.Where("table_id = ?", tableID)
	}
	if c.QueryParam("open") == "true" {
		query = query.Where("status IN ?", model.OpenOrderStatuses())
	}

	if result := query.Order("created_at DESC").Find(&ordersList); result.Error != nil {
		log.Error("Failed to list orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve orders"})
	}

	return c.JSON(http.StatusOK, ordersList)
}

// GetOrder handles retrieving a single order with its items
func GetOrder(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var order model.Order
	result := database.GetDB().
		Preload("Items").
		Preload("Table").
		Where("restaurant_id = ?", restaurantID).
		First(&order, id)
	if result.Error != nil {
		log.Error("Order not found", zap.String("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}

	return c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus moves an order along its state machine; paying off the
// last open order of a table frees the table.
func UpdateOrderStatus(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("order_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var order model.Order
	if result := database.GetDB().Where("restaurant_id = ?", restaurantID).First(&order, id); result.Error != nil {
		log.Error("Order not found", zap.String("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}

	updated, err := orders.UpdateStatus(c.Request().Context(), restaurantID, order.ID, req.Status)
	if err != nil {
		return orderErrorResponse(c, log, err)
	}

	log.Info("Order status updated",
		zap.Uint("order_id", updated.ID),
		zap.String("status", updated.Status))
	return c.JSON(http.StatusOK, updated)
}

// orderErrorResponse maps coordinator errors to HTTP responses with
// machine-checkable reason strings. Validation and business-rule failures
// are client errors; everything else is an opaque server error.
func orderErrorResponse(c echo.Context, log *zap.Logger, err error) error {
	var (
		notFoundErr   *ordering.MenuItemNotFoundError
		quantityErr   *ordering.InvalidQuantityError
		transitionErr *ordering.InvalidTransitionError
		stockErr      *inventory.InsufficientStockError
	)

	switch {
	case errors.Is(err, ordering.ErrInvalidTable):
		prometheus.RecordOrderFailure("invalid_table")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid_table"})
	case errors.Is(err, ordering.ErrEmptyCart):
		prometheus.RecordOrderFailure("empty_cart")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty_cart"})
	case errors.Is(err, ordering.ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order_not_found"})
	case errors.As(err, &notFoundErr):
		prometheus.RecordOrderFailure("menu_item_not_found")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":        "menu_item_not_found",
			"menu_item_id": notFoundErr.MenuItemID,
		})
	case errors.As(err, &quantityErr):
		prometheus.RecordOrderFailure("invalid_quantity")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":        "invalid_quantity",
			"menu_item_id": quantityErr.MenuItemID,
			"quantity":     quantityErr.Quantity,
		})
	case errors.As(err, &stockErr):
		prometheus.RecordOrderFailure("insufficient_stock")
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "insufficient_stock",
			"item":      stockErr.ItemName,
			"available": stockErr.Available.String(),
			"requested": stockErr.Requested.String(),
		})
	case errors.As(err, &transitionErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "invalid_status_transition",
			"from":  transitionErr.From,
			"to":    transitionErr.To,
		})
	default:
		log.Error("Order operation failed", zap.Error(err))
		prometheus.RecordOrderFailure("internal")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "order operation failed"})
	}
}
