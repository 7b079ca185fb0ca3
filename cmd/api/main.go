package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"coinwise/internal/config"
	"coinwise/internal/database"
	"coinwise/internal/handlers"
	"coinwise/internal/logger"
	"coinwise/internal/middleware"
	"coinwise/internal/parser"
	"coinwise/internal/queue"
	"coinwise/internal/services"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "coinwise/internal/docs" // Import swagger docs
)

// @title           Coinwise API
// @version         1.0
// @description     Coinwise is a personal finance backend for tracking transactions, budgets, and savings goals, with AI-assisted bank statement ingestion.
// @termsOfService  http://swagger.io/terms/

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
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	statementParser, err := parser.NewGeminiParser(context.Background(), appConfig.GeminiAPIKey, appConfig.GeminiModel)
	if err != nil {
		return fmt.Errorf("failed to create statement parser: %w", err)
	}

	// Statement uploads are queued when a broker is configured and
	// processed inline otherwise.
	var publisher services.IngestPublisher
	if appConfig.AMQPURL != "" {
		queueClient, err := queue.NewClient(appConfig.AMQPURL, appConfig.AMQPExchange, appConfig.AMQPQueue)
		if err != nil {
			return fmt.Errorf("failed to connect to message broker: %w", err)
		}
		defer queueClient.Close()
		publisher = queueClient
		log.Infow("statement uploads will be queued", "queue", appConfig.AMQPQueue)
	} else {
		log.Info("no AMQP_URL configured, statement uploads will be processed inline")
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	ledgerService := services.NewLedgerService(db)
	transactionService := services.NewTransactionService(db, ledgerService)
	budgetService := services.NewBudgetService(db)
	goalService := services.NewGoalService(db)
	statsService := services.NewStatsService(db, budgetService)
	ingestService := services.NewIngestService(db, statementParser, ledgerService, userService, publisher)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, userService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	goalHandler := handlers.NewGoalHandler(goalService, auditService)
	statsHandler := handlers.NewStatsHandler(statsService)
	uploadHandler := handlers.NewUploadHandler(ingestService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
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
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.DELETE("/remove-duplicates", transactionHandler.RemoveDuplicates)
	transactions.POST("/fix-transfer-names", transactionHandler.FixTransferNames)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	// Goal routes
	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.GetGoals)
	goals.GET("/:id", goalHandler.GetGoal)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.POST("/:id/contributions", goalHandler.AddContribution)
	goals.GET("/:id/contributions", goalHandler.GetContributions)
	goals.DELETE("/:id/contributions/:contributionId", goalHandler.DeleteContribution)

	// Stats routes
	stats := protected.Group("/stats")
	stats.GET("/overview", statsHandler.GetOverview)
	stats.GET("/expenses", statsHandler.GetExpenseStats)
	stats.GET("/income", statsHandler.GetIncomeStats)
	stats.GET("/transfers", statsHandler.GetTransferStats)
	stats.GET("/deposits", statsHandler.GetDepositStats)
	stats.GET("/budgets", statsHandler.GetBudgetStats)
	stats.GET("/goals", statsHandler.GetGoalStats)
	stats.GET("/month-summary", statsHandler.GetMonthSummary)
	stats.GET("/history", statsHandler.GetHistorySummary)

	// Statement upload routes
	uploads := protected.Group("/uploads")
	uploads.POST("", uploadHandler.UploadStatement)
	uploads.GET("", uploadHandler.GetUploads)
	uploads.GET("/:id", uploadHandler.GetUpload)

	log.Infof("Starting Coinwise backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
