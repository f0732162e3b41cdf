package main

import (
	"fmt"
	"net/http"
	"os"

	"balanceboard/internal/ai"
	"balanceboard/internal/config"
	"balanceboard/internal/database"
	"balanceboard/internal/email"
	"balanceboard/internal/handlers"
	"balanceboard/internal/logger"
	"balanceboard/internal/middleware"
	"balanceboard/internal/services"
	"balanceboard/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "balanceboard/internal/docs" // Import swagger docs
)

// @title           BalanceBoard API
// @version         1.0
// @description     BalanceBoard is a personal finance API for tracking accounts, transactions, and budgets, with CSV import/export and spending insights.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom validation tags
	validator.Register()

	// External collaborators; both degrade gracefully when not configured.
	var aiClient ai.Client
	if appConfig.GeminiAPIKey != "" {
		aiClient, err = ai.NewGeminiClient(appConfig.GeminiAPIKey, appConfig.GeminiModel)
		if err != nil {
			return fmt.Errorf("failed to create AI client: %w", err)
		}
	} else {
		log.Warn("GEMINI_API_KEY not set, AI insights disabled")
	}

	var sender email.Sender
	if appConfig.ResendAPIKey != "" {
		sender, err = email.NewResendClient(appConfig.ResendAPIKey, appConfig.EmailFrom)
		if err != nil {
			return fmt.Errorf("failed to create email sender: %w", err)
		}
	} else {
		log.Warn("RESEND_API_KEY not set, budget alert emails disabled")
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	accountService := services.NewAccountService(db)
	transactionService := services.NewTransactionService(db, accountService)
	budgetService := services.NewBudgetService(db, sender)
	insightService := services.NewInsightService(db, aiClient)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	accountHandler := handlers.NewAccountHandler(accountService, transactionService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, budgetService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, accountService, auditService)
	insightHandler := handlers.NewInsightHandler(insightService)
	categoryHandler := handlers.NewCategoryHandler()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Scheduler-driven pipeline routes, guarded by API key
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(appConfig.PipelineAPIKey))
	pipeline.POST("/recurring/process", transactionHandler.ProcessRecurring)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// Current user
	protected.GET("/profile", authHandler.GetProfile)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.Create)
	accounts.GET("", accountHandler.List)
	accounts.GET("/:id", accountHandler.Get)
	accounts.PUT("/:id/default", accountHandler.SetDefault)
	accounts.DELETE("/:id", accountHandler.Delete)
	accounts.GET("/:id/transactions", accountHandler.Transactions)
	accounts.GET("/:id/budget", budgetHandler.GetAccountBudget)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.Create)
	transactions.GET("", transactionHandler.List)
	transactions.GET("/export", transactionHandler.Export)
	transactions.POST("/bulk-delete", transactionHandler.BulkDelete)
	transactions.POST("/import/preview", transactionHandler.ImportPreview)
	transactions.POST("/import", transactionHandler.Import)
	transactions.GET("/:id", transactionHandler.Get)
	transactions.PUT("/:id", transactionHandler.Update)
	transactions.DELETE("/:id", transactionHandler.Delete)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.GET("/current", budgetHandler.GetCurrent)
	budgets.PUT("", budgetHandler.Upsert)
	budgets.GET("/categories", budgetHandler.ListCategories)
	budgets.PUT("/categories/:category", budgetHandler.SetCategory)
	budgets.DELETE("/categories/:category", budgetHandler.DeleteCategory)

	// Insight routes
	protected.GET("/insights", insightHandler.Get)

	// Category catalog
	protected.GET("/categories", categoryHandler.List)

	log.Infof("Starting BalanceBoard backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
