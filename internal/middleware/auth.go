package middleware

import (
	"net/http"
	"strings"

	"tableserve/pkg/jwtutil"
	"tableserve/pkg/logger"
	"tableserve/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token and extracts restaurant information
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Store user info in context for later use
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)

		// Every staff endpoint is scoped to a restaurant, so the claim is required
		if claims.RestaurantID == nil {
			log.Warn("JWT token does not contain restaurant_id")
			prometheus.RecordAuthError("missing_restaurant")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "restaurant_id is required in the token"})
		}

		c.Set("restaurant_id", *claims.RestaurantID)
		c.Set("restaurant_name", claims.RestaurantName)
		c.Set("user_role", claims.Role)
		log.Debug("Request authenticated with restaurant context",
			zap.Uint("restaurant_id", *claims.RestaurantID),
			zap.String("restaurant_name", claims.RestaurantName),
			zap.String("role", claims.Role))

		return next(c)
	}
}

// GetRestaurantIDFromContext retrieves the restaurant ID from the context.
// Returns 0, false if it is not set.
func GetRestaurantIDFromContext(c echo.Context) (uint, bool) {
	restaurantID, ok := c.Get("restaurant_id").(uint)
	return restaurantID, ok
}
