package handler

import (
	"net/http"

	"tableserve/internal/middleware"
	"tableserve/internal/model"
	"tableserve/pkg/database"
	"tableserve/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TableRequest defines the structure for table creation/update requests
type TableRequest struct {
	Number   int `json:"number"`
	Capacity int `json:"capacity"`
}

// ListTables handles retrieving all tables of the restaurant
func ListTables(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)

	var tables []model.Table
	query := database.GetDB().Where("restaurant_id = ?", restaurantID)

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if result := query.Order("number").Find(&tables); result.Error != nil {
		log.Error("Failed to list tables", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tables"})
	}

	return c.JSON(http.StatusOK, tables)
}

// CreateTable handles creating a new table with a fresh QR token
func CreateTable(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)

	var req TableRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Number <= 0 {
		log.Warn("Invalid table number", zap.Int("number", req.Number))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table number must be positive"})
	}
	if req.Capacity <= 0 {
		req.Capacity = 2
	}

	// Table numbers are unique within a restaurant
	var count int64
	database.GetDB().Model(&model.Table{}).
		Where("restaurant_id = ? AND number = ?", restaurantID, req.Number).
		Count(&count)
	if count > 0 {
		log.Warn("Table number already exists", zap.Int("number", req.Number))
		return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists"})
	}

	table := model.Table{
		RestaurantID: restaurantID,
		Number:       req.Number,
		Capacity:     req.Capacity,
		Status:       model.TableAvailable,
		Token:        uuid.NewString(),
	}
	if result := database.GetDB().Create(&table); result.Error != nil {
		log.Error("Failed to create table", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create table"})
	}

	log.Info("Table created",
		zap.Uint("table_id", table.ID),
		zap.Int("number", table.Number))
	return c.JSON(http.StatusCreated, table)
}

// UpdateTable handles updating a table's number and capacity
func UpdateTable(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var req TableRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("table_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var table model.Table
	if result := database.GetDB().Where("restaurant_id = ?", restaurantID).First(&table, id); result.Error != nil {
		log.Error("Table not found", zap.String("table_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	}

	if req.Number > 0 && req.Number != table.Number {
		var count int64
		database.GetDB().Model(&model.Table{}).
			Where("restaurant_id = ? AND number = ? AND id != ?", restaurantID, req.Number, table.ID).
			Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists"})
		}
		table.Number = req.Number
	}
	if req.Capacity > 0 {
		table.Capacity = req.Capacity
	}

	if result := database.GetDB().Save(&table); result.Error != nil {
		log.Error("Failed to update table", zap.String("table_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update table"})
	}

	return c.JSON(http.StatusOK, table)
}

// RegenerateTableToken rotates a table's QR token, invalidating printed codes
func RegenerateTableToken(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var table model.Table
	if result := database.GetDB().Where("restaurant_id = ?", restaurantID).First(&table, id); result.Error != nil {
		log.Error("Table not found", zap.String("table_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	}

	table.Token = uuid.NewString()
	if result := database.GetDB().Save(&table); result.Error != nil {
		log.Error("Failed to regenerate token", zap.String("table_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to regenerate token"})
	}

	log.Info("Table token regenerated", zap.Uint("table_id", table.ID))
	return c.JSON(http.StatusOK, table)
}

// DeleteTable handles deleting a table. Blocked while any order references it.
func DeleteTable(c echo.Context) error {
	log := logger.FromContext(c)
	restaurantID, _ := middleware.GetRestaurantIDFromContext(c)
	id := c.Param("id")

	var table model.Table
	if result := database.GetDB().Where("restaurant_id = ?", restaurantID).First(&table, id); result.Error != nil {
		log.Warn("Table not found for deletion", zap.String("table_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	}

	var orderCount int64
	database.GetDB().Model(&model.Order{}).Where("table_id = ?", table.ID).Count(&orderCount)
	if orderCount > 0 {
		log.Warn("Table still referenced by orders",
			zap.Uint("table_id", table.ID),
			zap.Int64("orders", orderCount))
		return c.JSON(http.StatusConflict, echo.Map{"error": "table has order history and cannot be deleted"})
	}

	if result := database.GetDB().Delete(&table); result.Error != nil {
		log.Error("Failed to delete table", zap.String("table_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete table"})
	}

	log.Info("Table deleted", zap.Uint("table_id", table.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "table deleted"})
}
