// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vouchify/vouchify-backend/internal/config"
	"github.com/vouchify/vouchify-backend/internal/handlers"
	"github.com/vouchify/vouchify-backend/internal/middleware"
	"github.com/vouchify/vouchify-backend/internal/services"
	"github.com/vouchify/vouchify-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)

	authService := services.NewAuthService(db, cfg, notificationService)
	voucherService := services.NewVoucherService(db, cfg, notificationService)
	purchaseService := services.NewPurchaseService(db, cfg, notificationService)
	walletService := services.NewWalletService(db)
	adminService := services.NewAdminService(db, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	voucherHandler := handlers.NewVoucherHandler(voucherService, storageService)
	transactionHandler := handlers.NewTransactionHandler(purchaseService, storageService)
	walletHandler := handlers.NewWalletHandler(walletService)
	payoutHandler := handlers.NewPayoutHandler(adminService)
	adminHandler := handlers.NewAdminHandler(adminService, purchaseService, storageService)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.POST("/verify-email", authHandler.VerifyEmail)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Voucher marketplace routes
		vouchers := v1.Group("/vouchers")
		{
			vouchers.GET("", middleware.OptionalAuth(), voucherHandler.GetVouchers)
			vouchers.GET("/brands", voucherHandler.GetBrands)

			protected := vouchers.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("/mine", voucherHandler.GetMyVouchers)
				protected.POST("", voucherHandler.CreateVoucher)
				protected.PUT("/:id", voucherHandler.UpdateVoucher)
				protected.DELETE("/:id", voucherHandler.DeleteVoucher)
				protected.POST("/images", middleware.UploadRateLimit(), voucherHandler.UploadImage)
			}

			vouchers.GET("/:id", middleware.OptionalAuth(), voucherHandler.GetVoucher)
		}

		// Purchase routes
		purchases := v1.Group("/purchases")
		purchases.Use(middleware.AuthRequired())
		{
			purchases.POST("", middleware.PurchaseRateLimit(), transactionHandler.Purchase)
			purchases.POST("/confirm-payment", transactionHandler.ConfirmStripePayment)
		}

		// Transaction routes
		transactions := v1.Group("/transactions")
		transactions.Use(middleware.AuthRequired())
		{
			transactions.GET("", transactionHandler.GetTransactions)
			transactions.GET("/:id", transactionHandler.GetTransaction)
			transactions.GET("/:id/code", transactionHandler.RevealScratchCode)
			transactions.POST("/:id/payment-proof", middleware.UploadRateLimit(), transactionHandler.UploadPaymentProof)
		}

		// Wallet routes
		wallet := v1.Group("/wallet")
		wallet.Use(middleware.AuthRequired())
		{
			wallet.GET("", walletHandler.GetBalance)
			wallet.POST("/top-up", walletHandler.TopUp)
		}

		// Payout routes (seller side)
		payouts := v1.Group("/payouts")
		payouts.Use(middleware.AuthRequired())
		{
			payouts.GET("", payoutHandler.GetMyPayouts)
			payouts.POST("/:id/queries", payoutHandler.AddQuery)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)

			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", adminHandler.GetUsers)
				adminUsers.PUT("/:id/status", adminHandler.UpdateUserStatus)
			}

			adminVouchers := admin.Group("/vouchers")
			{
				adminVouchers.GET("", adminHandler.GetVouchers)
				adminVouchers.POST("/:id/approve", adminHandler.ApproveVoucher)
				adminVouchers.POST("/:id/reject", adminHandler.RejectVoucher)
			}

			adminTransactions := admin.Group("/transactions")
			{
				adminTransactions.GET("", adminHandler.GetTransactions)
				adminTransactions.POST("/:id/confirm", adminHandler.ConfirmTransaction)
				adminTransactions.POST("/:id/reject", adminHandler.RejectTransaction)
				adminTransactions.POST("/:id/refund", adminHandler.RefundTransaction)
				adminTransactions.GET("/:id/payment-proof", adminHandler.GetPaymentProofURL)
			}

			adminPayouts := admin.Group("/payouts")
			{
				adminPayouts.GET("", adminHandler.GetPayouts)
				adminPayouts.POST("/:id/pay", adminHandler.MarkPayoutPaid)
				adminPayouts.POST("/:id/reject", adminHandler.RejectPayout)
			}

			adminSettings := admin.Group("/settings")
			{
				adminSettings.GET("", adminHandler.GetSettings)
				adminSettings.PUT("", adminHandler.UpdateSetting)
			}

			adminNotifications := admin.Group("/notifications")
			{
				adminNotifications.GET("", adminHandler.GetNotifications)
				adminNotifications.PUT("/:id/read", adminHandler.MarkNotificationRead)
			}

			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
		}

		// Category routes (static catalog)
		categories := v1.Group("/categories")
		{
			categories.GET("", getCategoriesHandler)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}

func getCategoriesHandler(c *gin.Context) {
	categories := []map[string]interface{}{
		{"id": "shopping", "name": "Shopping", "icon": "bag"},
		{"id": "food", "name": "Food & Dining", "icon": "utensils"},
		{"id": "travel", "name": "Travel", "icon": "plane"},
		{"id": "entertainment", "name": "Entertainment", "icon": "film"},
		{"id": "electronics", "name": "Electronics", "icon": "cpu"},
		{"id": "fashion", "name": "Fashion", "icon": "shirt"},
		{"id": "groceries", "name": "Groceries", "icon": "cart"},
		{"id": "beauty", "name": "Beauty & Wellness", "icon": "sparkles"},
		{"id": "gaming", "name": "Gaming", "icon": "gamepad"},
		{"id": "other", "name": "Other", "icon": "tag"},
	}

	utils.SuccessResponse(c, gin.H{
		"categories": categories,
	})
}
