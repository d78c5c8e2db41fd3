package handler

import (
	"net/http"
	"time"

	"tableserve/internal/model"
	"tableserve/pkg/database"
	"tableserve/pkg/jwtutil"
	"tableserve/pkg/logger"
	"tableserve/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Register handles staff account creation
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AuthAttemptsCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		log.Warn("Incomplete registration data", zap.String("email", req.Email))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	// Check for an existing account
	var count int64
	database.GetDB().Model(&model.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		log.Warn("Email already registered", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_taken")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	user := model.User{
		Email:    req.Email,
		Password: string(hashed),
		Name:     req.Name,
	}
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered", zap.String("email", user.Email), zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registered successfully",
		"user":    user,
	})
}

// Login authenticates a staff member and issues a JWT scoped to a restaurant
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AuthAttemptsCounter.Inc()

	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		RestaurantID *uint  `json:"restaurant_id,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&user); result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Resolve the restaurant membership the token will be scoped to
	var membership model.UserRestaurant
	query := database.GetDB().Where("user_id = ? AND active = ?", user.ID, true)
	if req.RestaurantID != nil {
		query = query.Where("restaurant_id = ?", *req.RestaurantID)
	} else {
		query = query.Order("is_default DESC")
	}
	if result := query.First(&membership); result.Error != nil {
		log.Error("User has no restaurant membership",
			zap.String("email", req.Email))
		prometheus.RecordAuthError("restaurant_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no access to a restaurant"})
	}

	var restaurant model.Restaurant
	restaurantName := ""
	if result := database.GetDB().Select("name").First(&restaurant, membership.RestaurantID); result.Error == nil {
		restaurantName = restaurant.Name
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, &membership.RestaurantID, restaurantName, membership.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("restaurant_id", membership.RestaurantID),
		zap.String("role", membership.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
		"restaurant": map[string]interface{}{
			"id":   membership.RestaurantID,
			"name": restaurantName,
			"role": membership.Role,
		},
	})
}
