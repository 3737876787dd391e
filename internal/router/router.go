package router

import (
	"time"

	"likesio/config"
	"likesio/internal/handler"
	"likesio/internal/middleware"
	"likesio/internal/repository"
	"likesio/internal/service"
	"likesio/pkg/gateway"
	"likesio/pkg/mailer"
	"likesio/pkg/smm"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, m *mailer.Mailer) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// External clients
	cryptomusClient := gateway.NewCryptomusClient(cfg.Cryptomus.BaseURL, cfg.Cryptomus.MerchantID, cfg.Cryptomus.APIKey)
	bigPayMeClient := gateway.NewBigPayMeClient(cfg.BigPayMe.BaseURL, cfg.BigPayMe.APIKey, cfg.BigPayMe.WebhookSecret)
	myFatoorahClient := gateway.NewMyFatoorahClient(cfg.MyFatoorah.BaseURL, cfg.MyFatoorah.APIToken, cfg.MyFatoorah.WebhookSecret)
	checkoutClient := gateway.NewCheckoutComClient(cfg.Checkout.BaseURL, cfg.Checkout.SecretKey)
	providers := map[string]gateway.Provider{
		cryptomusClient.Name():  cryptomusClient,
		bigPayMeClient.Name():   bigPayMeClient,
		myFatoorahClient.Name(): myFatoorahClient,
		checkoutClient.Name():   checkoutClient,
	}
	panel := smm.NewClient(cfg.Jap.BaseURL, cfg.Jap.APIKey)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	couponSvc := service.NewCouponService(couponRepo)
	emailSvc := service.NewEmailService(m)
	notifSvc := service.NewNotificationService(notificationRepo)
	processor := service.NewOrderProcessor(orderRepo, paymentRepo, serviceRepo, auditRepo, couponSvc, emailSvc, notifSvc, panel)
	catalogSvc := service.NewCatalogService(serviceRepo, panel)

	// Handlers
	serviceHandler := handler.NewServiceHandler(serviceRepo)
	orderHandler := handler.NewOrderHandler(cfg, orderRepo, paymentRepo, serviceRepo, couponSvc, providers)
	couponHandler := handler.NewCouponHandler(couponSvc)
	cryptomusWebhook := handler.NewCryptomusWebhookHandler(cryptomusClient, paymentRepo, processor)
	bigPayMeWebhook := handler.NewBigPayMeWebhookHandler(bigPayMeClient, paymentRepo, processor)
	myFatoorahWebhook := handler.NewMyFatoorahWebhookHandler(myFatoorahClient, paymentRepo, processor)
	adminHandler := handler.NewAdminHandler(adminRepo, orderRepo, paymentRepo, serviceRepo, couponRepo,
		walletRepo, settingRepo, auditRepo, authSvc, catalogSvc, processor)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		api.GET("/services", serviceHandler.List)
		api.POST("/orders", orderHandler.Create)
		api.GET("/orders/:id/status", orderHandler.GetStatus)
		api.POST("/coupons/validate", couponHandler.Validate)

		// Gateway callbacks authenticate themselves by signature, not by session.
		api.POST("/webhooks/cryptomus", cryptomusWebhook.Handle)
		api.POST("/webhooks/bigpayme", bigPayMeWebhook.Handle)
		api.POST("/webhooks/myfatoorah", myFatoorahWebhook.Handle)
	}

	admin := r.Group("/api/v1/admin")
	{
		admin.POST("/login", adminHandler.Login)
		admin.POST("/refresh", adminHandler.Refresh)

		protected := admin.Group("")
		protected.Use(authMw, middleware.AdminRequired())
		{
			protected.GET("/dashboard", adminHandler.Dashboard)
			protected.GET("/analytics", adminHandler.Analytics)

			protected.GET("/orders", adminHandler.ListOrders)
			protected.GET("/orders/:id", adminHandler.GetOrder)
			protected.PATCH("/orders/:id/status", adminHandler.OverrideOrderStatus)
			protected.POST("/orders/:id/retry-fulfillment", adminHandler.RetryFulfillment)
			protected.POST("/orders/:id/refresh-status", adminHandler.RefreshOrderStatus)

			protected.GET("/payments", adminHandler.ListPayments)

			protected.GET("/services", adminHandler.ListServices)
			protected.POST("/services", adminHandler.CreateService)
			protected.PATCH("/services/:id", adminHandler.UpdateService)
			protected.DELETE("/services/:id", adminHandler.DeleteService)
			protected.POST("/services/sync", adminHandler.SyncServices)

			protected.GET("/coupons", adminHandler.ListCoupons)
			protected.POST("/coupons", adminHandler.CreateCoupon)
			protected.PATCH("/coupons/:id", adminHandler.UpdateCoupon)
			protected.DELETE("/coupons/:id", adminHandler.DeleteCoupon)
			protected.GET("/coupons/:id/redemptions", adminHandler.ListRedemptions)

			protected.POST("/wallets/:user_id/adjust", adminHandler.AdjustWallet)
			protected.GET("/wallets/:user_id/transactions", adminHandler.ListWalletTransactions)

			protected.GET("/settings", adminHandler.GetSettings)
			protected.PUT("/settings", adminHandler.UpdateSettings)

			protected.GET("/audit-logs", adminHandler.ListAuditLogs)
		}
	}

	return r
}
