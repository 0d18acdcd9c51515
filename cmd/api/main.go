package main

import (
	"fmt"
	"homefund/internal/config"
	"homefund/internal/database"
	"homefund/internal/handlers"
	"homefund/internal/logger"
	"homefund/internal/middleware"
	"homefund/internal/services"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "homefund/internal/docs" // Import swagger docs
)

// @title           HomeFund API
// @version         1.0
// @description     HomeFund is a shared household ledger that splits the monthly budget across members, pairs direct expenses with compensatory entries, and settles credits and loans between members.
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

	// Initialize services. Contribution recomputation feeds both the period
	// lifecycle and the credit engine, so wiring order matters here.
	db := dbManager.DB()
	userService := services.NewUserService(db)
	householdService := services.NewHouseholdService(db)
	contributionService := services.NewContributionService(db)
	creditService := services.NewCreditService(db, contributionService)
	periodService := services.NewPeriodService(db, contributionService, creditService)
	transactionService := services.NewTransactionService(db, periodService)
	loanService := services.NewLoanService(db, transactionService)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	householdHandler := handlers.NewHouseholdHandler(householdService, auditService)
	periodHandler := handlers.NewPeriodHandler(periodService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	contributionHandler := handlers.NewContributionHandler(contributionService, auditService)
	creditHandler := handlers.NewCreditHandler(creditService, auditService)
	loanHandler := handlers.NewLoanHandler(loanService, auditService)
	internalHandler := handlers.NewInternalHandler(periodService)

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

	// Household routes
	households := protected.Group("/households")
	households.POST("", householdHandler.CreateHousehold)
	households.GET("/:id", householdHandler.GetHousehold)
	households.PUT("/:id", householdHandler.UpdateSettings)
	households.POST("/:id/members", householdHandler.AddMember)
	households.POST("/:id/incomes", householdHandler.SetIncome)
	households.POST("/:id/categories", householdHandler.CreateCategory)
	households.GET("/:id/categories", householdHandler.GetCategories)

	// Period lifecycle routes
	households.POST("/:id/periods", periodHandler.CreatePeriod)
	households.GET("/:id/periods/:periodID", periodHandler.GetPeriod)
	households.POST("/:id/periods/:periodID/lock", periodHandler.Lock)
	households.POST("/:id/periods/:periodID/open", periodHandler.Open)
	households.POST("/:id/periods/:periodID/close/start", periodHandler.StartClosing)
	households.POST("/:id/periods/:periodID/close", periodHandler.Close)
	households.POST("/:id/periods/:periodID/reopen", periodHandler.Reopen)
	households.POST("/:id/periods/:periodID/adjustments", contributionHandler.AddAdjustment)

	// Contribution routes
	households.GET("/:id/contributions", contributionHandler.GetContributions)

	// Transaction routes
	households.POST("/:id/transactions", transactionHandler.RecordTransaction)
	households.GET("/:id/transactions", transactionHandler.GetTransactions)
	households.GET("/:id/transactions/:transactionID", transactionHandler.GetTransaction)
	households.PUT("/:id/transactions/:transactionID", transactionHandler.UpdateTransaction)
	households.DELETE("/:id/transactions/:transactionID", transactionHandler.DeleteTransaction)

	// Credit routes
	households.GET("/:id/credits", creditHandler.GetCredits)
	households.POST("/:id/credits/:creditID/apply", creditHandler.ApplyCredit)

	// Loan routes
	households.POST("/:id/loans", loanHandler.RequestLoan)
	households.POST("/:id/loans/:loanID/approve", loanHandler.ApproveLoan)
	households.POST("/:id/loans/repay", loanHandler.RepayLoan)
	households.GET("/:id/loans/debt", loanHandler.GetDebt)
	households.GET("/:id/loans/balance", loanHandler.GetBalance)

	// Internal routes for key-authenticated collaborators
	internal := router.Group("/internal")
	internal.Use(middleware.ServiceAuthMiddleware(appConfig.ServiceAPIKey))
	internal.GET("/households/:id/period-status", internalHandler.GetPeriodStatus)

	log.Infof("Starting HomeFund backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
