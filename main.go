package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quickprint/quickprint-api/config"
	"github.com/quickprint/quickprint-api/controllers"
	"github.com/quickprint/quickprint-api/middleware"
	"github.com/quickprint/quickprint-api/models"
	"github.com/quickprint/quickprint-api/realtime"
	"github.com/quickprint/quickprint-api/services"
)

func main() {
	log.Println("Starting QuickPrint API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Order{}, &models.Message{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	identity := services.NewIdentityService(cfg)

	storage, err := services.NewStorageService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	router := setupRouter(cfg, db, identity, storage, hub)

	addr := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the full route table from explicitly constructed
// dependencies. Tests call this with in-memory fakes.
func setupRouter(cfg *config.Config, db *gorm.DB, identity services.IdentityInterface, storage services.StorageInterface, hub *realtime.Hub) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	var broadcaster realtime.Broadcaster = hub

	authController := controllers.NewAuthController(identity)
	orderController := controllers.NewOrderController(db, storage)
	adminController := controllers.NewAdminController(db, storage, identity)
	contactController := controllers.NewContactController(db, broadcaster)
	messageController := controllers.NewMessageController(db, broadcaster)

	api := router.Group("/api")
	{
		api.GET("/health", healthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/signup", authController.Signup)
			auth.POST("/login", authController.Login)
			auth.GET("/me", middleware.RequireAuth(identity), authController.Me)
		}

		orders := api.Group("/orders", middleware.RequireAuth(identity))
		{
			orders.POST("", orderController.CreateOrder)
			orders.GET("", orderController.ListOrders)
			orders.PUT("/:id/cancel", orderController.CancelOrder)
			orders.DELETE("/:id", orderController.DeleteOrder)
		}

		admin := api.Group("/admin", middleware.RequireAdmin(identity))
		{
			admin.GET("/orders", adminController.ListAllOrders)
			admin.PUT("/orders/:id", adminController.UpdateOrderStatus)
			admin.DELETE("/orders/:id", adminController.DeleteOrder)
			admin.GET("/users", adminController.ListUsers)
			admin.DELETE("/users/:id", adminController.DeleteUser)
		}

		api.POST("/contact", middleware.OptionalAuth(identity), contactController.SubmitContact)
		api.GET("/contact", middleware.RequireAdmin(identity), contactController.ListContactMessages)

		messages := api.Group("/messages", middleware.RequireAuth(identity))
		{
			messages.POST("", messageController.SendMessage)
			messages.GET("/:orderId", messageController.ListMessages)
		}
	}

	router.GET("/ws", realtime.ServeWS(hub))

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "QuickPrint API is running",
	})
}
