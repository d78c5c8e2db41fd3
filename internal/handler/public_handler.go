package handler

import (
	"net/http"

	"tableserve/internal/model"
	"tableserve/internal/ordering"
	"tableserve/pkg/database"
	"tableserve/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// The public endpoints serve the customer ordering flow. No authentication:
// possession of a table token is the credential.

// GetMenuByToken returns the active menu of the restaurant a table belongs to
func GetMenuByToken(c echo.Context) error {
	log := logger.FromContext(c)
	token := c.Param("token")

	table, err := ordering.ResolveTableToken(c.Request().Context(), database.GetDB(), token)
	if err != nil {
		log.Warn("Unknown table token")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid_table"})
	}

	var items []model.MenuItem
	result := database.GetDB().
		Where("restaurant_id = ? AND is_active = true", table.RestaurantID).
		Order("category, name").
		Find(&items)
	if result.Error != nil {
		log.Error("Failed to load menu", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load menu"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"table": map[string]interface{}{
			"number":   table.Number,
			"capacity": table.Capacity,
		},
		"menu": items,
	})
}

// PlaceOrder handles customer order submission by table token
func PlaceOrder(c echo.Context) error {
	log := logger.FromContext(c)

	var req ordering.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid order request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	// Clients may also pass the dedupe key as a header
	if key := c.Request().Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	// Resolve the tenant from the token; the coordinator re-resolves the
	// table under lock inside its transaction
	table, err := ordering.ResolveTableToken(c.Request().Context(), database.GetDB(), req.TableToken)
	if err != nil {
		return orderErrorResponse(c, log, err)
	}

	order, err := orders.PlaceOrder(c.Request().Context(), table.RestaurantID, req)
	if err != nil {
		return orderErrorResponse(c, log, err)
	}

	log.Info("Order placed",
		zap.String("order_number", order.Number),
		zap.Uint("table_id", order.TableID),
		zap.String("total", order.Total.String()))
	return c.JSON(http.StatusCreated, order)
}

// GetOrderByNumber lets a customer poll their order's status
func GetOrderByNumber(c echo.Context) error {
	log := logger.FromContext(c)
	number := c.Param("number")

	var order model.Order
	result := database.GetDB().Preload("Items").Where("number = ?", number).First(&order)
	if result.Error != nil {
		log.Warn("Order not found", zap.String("order_number", number))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order_not_found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"number":     order.Number,
		"status":     order.Status,
		"total":      order.Total,
		"items":      order.Items,
		"created_at": order.CreatedAt,
	})
}
