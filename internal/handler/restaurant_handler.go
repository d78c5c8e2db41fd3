package handler

import (
	"net/http"
	"time"

	"tableserve/internal/model"
	"tableserve/pkg/database"
	"tableserve/pkg/logger"
	"tableserve/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateRestaurant handles restaurant (tenant) creation. The creating user
// becomes its owner and gets it as their default restaurant.
func CreateRestaurant(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Name        string `json:"name"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse restaurant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Slug == "" {
		log.Warn("Invalid restaurant data", zap.String("name", req.Name))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and slug are required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	restaurant := model.Restaurant{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		OwnerID:     userID,
		Active:      true,
	}
	if result := tx.Create(&restaurant); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create restaurant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "restaurant creation failed"})
	}

	membership := model.UserRestaurant{
		UserID:       userID,
		RestaurantID: restaurant.ID,
		Role:         "owner",
		IsDefault:    true,
		Active:       true,
	}
	if result := tx.Create(&membership); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create restaurant membership", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "restaurant association failed"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	log.Info("Restaurant created",
		zap.String("name", restaurant.Name),
		zap.Uint("id", restaurant.ID),
		zap.Uint("owner_id", restaurant.OwnerID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":    "restaurant created successfully",
		"restaurant": restaurant,
	})
}
