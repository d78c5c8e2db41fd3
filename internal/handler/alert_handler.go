package handler

import (
	"net/http"
	"strconv"

	"tableserve/internal/inventory"
	"tableserve/internal/middleware"
	"tableserve/internal/model"
	"tableserve/pkg/database"
	"tableserve/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListAlerts handles retrieving stock alerts with optional acknowledged filter
func ListAlerts(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)

	var alerts []model.StockAlert
	query := database.GetDB().
		Preload("InventoryItem").
		Where("restaurant_id = ?", restaurantID)

	if ackParam := c.QueryParam("acknowledged"); ackParam != "" {
		acknowledged, err := strconv.ParseBool(ackParam)
		if err == nil {
			query = query.Where("acknowledged = ?", acknowledged)
		} else {
			log.Warn("Invalid acknowledged parameter", zap.String("value", ackParam))
		}
	}

	if result := query.Order("created_at DESC").Find(&alerts); result.Error != nil {
		log.Error("Failed to list alerts", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve alerts"})
	}

	return c.JSON(http.StatusOK, alerts)
}

// AcknowledgeAlert marks a stock alert as handled
func AcknowledgeAlert(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid alert id"})
	}

	alert, err := inventory.Acknowledge(c.Request().Context(), database.GetDB(), restaurantID, uint(id))
	if err != nil {
		log.Warn("Alert not found", zap.Uint64("alert_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "alert not found"})
	}

	log.Info("Alert acknowledged", zap.Uint("alert_id", alert.ID))
	return c.JSON(http.StatusOK, alert)
}

// TriggerAlertScan runs the low-stock scan for the restaurant on demand
func TriggerAlertScan(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)

	created, err := inventory.Scan(c.Request().Context(), database.GetDB(), events, restaurantID)
	if err != nil {
		log.Error("Alert scan failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "alert scan failed"})
	}

	log.Info("Alert scan completed", zap.Int("created", created))
	return c.JSON(http.StatusOK, echo.Map{"created": created})
}
