// Package server assembles the ledger services and the HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "hisaab/internal/docs" // Import swagger docs
	"hisaab/internal/handlers"
	"hisaab/internal/middleware"
	"hisaab/internal/services"
)

// Services holds every ledger service over one database.
type Services struct {
	Users        services.UserServicer
	Categories   services.CategoryServicer
	Transactions services.TransactionServicer
	Loans        services.LoanServicer
	Settlements  services.SettlementServicer
	Analytics    services.AnalyticsServicer
	Audit        services.AuditServicer
}

// NewServices wires the services together. currency is the ISO 4217 code
// used when amounts are formatted for people.
func NewServices(db *gorm.DB, currency string) *Services {
	audit := services.NewAuditService(db)
	categories := services.NewCategoryService(db)
	transactions := services.NewTransactionService(db, audit)
	loans := services.NewLoanService(db, categories, transactions, audit)

	return &Services{
		Users:        services.NewUserService(db),
		Categories:   categories,
		Transactions: transactions,
		Loans:        loans,
		Settlements:  services.NewSettlementService(db, categories, transactions, loans, audit, currency),
		Analytics:    services.NewAnalyticsService(db),
		Audit:        audit,
	}
}

// NewRouter builds the gin engine with the public and authenticated routes.
func NewRouter(svc *Services) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit)
	loanHandler := handlers.NewLoanHandler(svc.Loans, svc.Audit)
	settlementHandler := handlers.NewSettlementHandler(svc.Settlements)
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Analytics)

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

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.ListCategories)
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("/:id", categoryHandler.GetCategoryByID)

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	persons := protected.Group("/persons")
	persons.GET("", loanHandler.ListPersons)
	persons.POST("", loanHandler.CreatePerson)
	persons.GET("/:id/loans", loanHandler.ListPersonEntries)

	loans := protected.Group("/loans")
	loans.POST("", loanHandler.CreateLoan)
	loans.GET("/pending", loanHandler.ListPending)
	loans.POST("/:id/settle", loanHandler.SettleLoan)
	loans.GET("/postings", loanHandler.ListPendingPostings)
	loans.POST("/postings/retry", loanHandler.RetryPendingPostings)

	settlements := protected.Group("/settlements")
	settlements.POST("/preview", settlementHandler.Preview)
	settlements.POST("", settlementHandler.Settle)

	analytics := protected.Group("/analytics")
	analytics.GET("/dashboard", analyticsHandler.Dashboard)
	analytics.GET("/modes", analyticsHandler.ModeBreakdown)
	analytics.GET("/categories", analyticsHandler.CategoryBreakdown)
	analytics.GET("/spend", analyticsHandler.SpendHistory)
	analytics.GET("/spend/daily", analyticsHandler.DailySpend)
	analytics.GET("/spend/monthly", analyticsHandler.MonthlySpend)
	analytics.GET("/loans", analyticsHandler.LoanTotals)
	analytics.GET("/overview", analyticsHandler.Overview)

	return router
}
