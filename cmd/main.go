package main

import (
	"context"
	"net/http"
	"time"

	"tableserve/internal/handler"
	"tableserve/internal/inventory"
	mid "tableserve/internal/middleware"
	"tableserve/internal/notify"
	"tableserve/internal/ordering"
	"tableserve/pkg/config"
	"tableserve/pkg/database"
	"tableserve/pkg/jwtutil"
	"tableserve/pkg/logger"
	"tableserve/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting tableserve", appConfig.LogConfig()...)

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize the event publisher
	var publisher notify.Publisher = notify.NoopPublisher{}
	if appConfig.AMQP.Enabled {
		rabbit, err := notify.NewRabbitMQPublisher(&appConfig.AMQP, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbit.Close()
		publisher = rabbit
	}

	// Wire the order coordinator into the handlers
	coordinator := ordering.NewCoordinator(database.GetDB(), publisher, appConfig.Ordering.SessionReuse)
	handler.Init(coordinator, publisher)

	// Periodic low-stock scan
	go runAlertScanner(appConfig.Alert.ScanInterval, publisher, log)

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public customer-facing routes (table token replaces authentication)
	public := e.Group("/api/public")
	public.GET("/menu/:token", handler.GetMenuByToken)
	public.POST("/orders", handler.PlaceOrder)
	public.GET("/orders/:number", handler.GetOrderByNumber)

	// Auth routes
	e.POST("/api/auth/register", handler.Register)
	e.POST("/api/auth/login", handler.Login)

	// Staff routes - JWT with restaurant context required
	api := e.Group("/api", mid.AuthMiddleware)

	api.POST("/restaurants", handler.CreateRestaurant)

	api.GET("/tables", handler.ListTables)
	api.POST("/tables", handler.CreateTable)
	api.PUT("/tables/:id", handler.UpdateTable)
	api.DELETE("/tables/:id", handler.DeleteTable)
	api.POST("/tables/:id/regenerate-token", handler.RegenerateTableToken)

	api.GET("/menu-items", handler.ListMenuItems)
	api.GET("/menu-items/:id", handler.GetMenuItem)
	api.POST("/menu-items", handler.CreateMenuItem)
	api.PUT("/menu-items/:id", handler.UpdateMenuItem)
	api.DELETE("/menu-items/:id", handler.DeleteMenuItem)
	api.PUT("/menu-items/:id/recipe", handler.SetRecipe)

	api.GET("/inventory", handler.ListInventory)
	api.GET("/inventory/:id", handler.GetInventoryItem)
	api.POST("/inventory", handler.CreateInventoryItem)
	api.PUT("/inventory/:id", handler.UpdateInventoryItem)
	api.DELETE("/inventory/:id", handler.DeleteInventoryItem)
	api.POST("/inventory/:id/adjust", handler.AdjustInventory)
	api.GET("/inventory/:id/usage", handler.GetInventoryUsage)

	api.GET("/orders", handler.ListOrders)
	api.GET("/orders/:id", handler.GetOrder)
	api.PUT("/orders/:id/status", handler.UpdateOrderStatus)

	api.GET("/alerts", handler.ListAlerts)
	api.POST("/alerts/:id/ack", handler.AcknowledgeAlert)
	api.POST("/alerts/scan", handler.TriggerAlertScan)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}

// runAlertScanner periodically checks every restaurant's inventory against
// its minimum thresholds
func runAlertScanner(interval time.Duration, publisher notify.Publisher, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		created, err := inventory.ScanAll(context.Background(), database.GetDB(), publisher)
		if err != nil {
			log.Error("Periodic alert scan failed", zap.Error(err))
			continue
		}
		if created > 0 {
			log.Info("Low-stock alerts created", zap.Int("count", created))
		}
	}
}
