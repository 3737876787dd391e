package handler

import (
	"errors"
	"net/http"
	"strconv"

	"likesio/internal/domain"
	"likesio/internal/middleware"
	"likesio/internal/models"
	"likesio/internal/repository"
	"likesio/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminRepo   *repository.AdminRepository
	orderRepo   *repository.OrderRepository
	paymentRepo *repository.PaymentRepository
	serviceRepo *repository.ServiceRepository
	couponRepo  *repository.CouponRepository
	walletRepo  *repository.WalletRepository
	settingRepo *repository.SettingRepository
	auditRepo   *repository.AuditLogRepository
	authSvc     *service.AuthService
	catalog     *service.CatalogService
	processor   *service.OrderProcessor
}

func NewAdminHandler(
	adminRepo *repository.AdminRepository,
	orderRepo *repository.OrderRepository,
	paymentRepo *repository.PaymentRepository,
	serviceRepo *repository.ServiceRepository,
	couponRepo *repository.CouponRepository,
	walletRepo *repository.WalletRepository,
	settingRepo *repository.SettingRepository,
	auditRepo *repository.AuditLogRepository,
	authSvc *service.AuthService,
	catalog *service.CatalogService,
	processor *service.OrderProcessor,
) *AdminHandler {
	return &AdminHandler{
		adminRepo:   adminRepo,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		serviceRepo: serviceRepo,
		couponRepo:  couponRepo,
		walletRepo:  walletRepo,
		settingRepo: settingRepo,
		auditRepo:   auditRepo,
		authSvc:     authSvc,
		catalog:     catalog,
		processor:   processor,
	}
}

// Login handles POST /admin/login — admin-only credential login.
func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, access, refresh, err := h.authSvc.Login(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if u.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          u,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Refresh handles POST /admin/refresh — exchanges the refresh token for a new token pair,
// so CMS sessions outlive the short access expiry without another password prompt.
func (h *AdminHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, access, refresh, err := h.authSvc.Refresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	if u.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Dashboard handles GET /admin/dashboard — overview stats.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Analytics handles GET /admin/analytics?days=30.
func (h *AdminHandler) Analytics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 || days > 365 {
		days = 30
	}
	revenue, _ := h.adminRepo.RevenueByDay(days)
	orders, _ := h.adminRepo.OrdersByDay(days)
	c.JSON(http.StatusOK, gin.H{"revenue": revenue, "orders": orders, "days": days})
}

// ListOrders handles GET /admin/orders.
func (h *AdminHandler) ListOrders(c *gin.Context) {
	status := c.Query("status")
	platform := c.Query("platform")
	page, limit := parsePagination(c)
	list, total, err := h.orderRepo.List(status, platform, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// GetOrder handles GET /admin/orders/:id.
func (h *AdminHandler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := h.orderRepo.GetWithDetails(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, o)
}

// OverrideOrderStatus handles PATCH /admin/orders/:id/status — the manual escape hatch for
// stuck orders. Every override leaves an audit row.
func (h *AdminHandler) OverrideOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=PENDING_PAYMENT PROCESSING COMPLETED FAILED"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := h.orderRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	previous := o.Status
	o.Status = req.Status
	if err := h.orderRepo.Update(o); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	adminID := adminUserID(c)
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     adminID,
		Action:     "order_status_override",
		Resource:   "order",
		ResourceID: c.Param("id"),
		Detail:     previous + " -> " + req.Status,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RetryFulfillment handles POST /admin/orders/:id/retry-fulfillment — re-attempts the
// upstream delivery order for a paid order that never reached the panel.
func (h *AdminHandler) RetryFulfillment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := h.orderRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err := h.processor.RetryFulfillment(c.Request.Context(), o); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "jap_order_id": o.JapOrderID})
}

// RefreshOrderStatus handles POST /admin/orders/:id/refresh-status — polls the panel and
// marks the order COMPLETED when delivery finished upstream.
func (h *AdminHandler) RefreshOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	o, err := h.orderRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err := h.processor.RefreshUpstreamStatus(c.Request.Context(), o); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": o.Status, "jap_status": o.JapStatus})
}

// ListPayments handles GET /admin/payments.
func (h *AdminHandler) ListPayments(c *gin.Context) {
	status := c.Query("status")
	gatewayName := c.Query("gateway")
	page, limit := parsePagination(c)
	list, total, err := h.paymentRepo.List(status, gatewayName, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ListServices handles GET /admin/services.
func (h *AdminHandler) ListServices(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.serviceRepo.List(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list services"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

type serviceRequest struct {
	Platform     string  `json:"platform" binding:"required,oneof=instagram tiktok youtube"`
	ServiceType  string  `json:"service_type" binding:"required,oneof=likes followers views"`
	Name         string  `json:"name" binding:"required"`
	JapServiceID int     `json:"jap_service_id"`
	BasePrice    float64 `json:"base_price" binding:"gte=0"`
	Markup       float64 `json:"markup" binding:"gte=0"`
	MinQuantity  int     `json:"min_quantity"`
	MaxQuantity  int     `json:"max_quantity"`
	IsActive     *bool   `json:"is_active"`
}

// CreateService handles POST /admin/services. FinalPrice is derived, never accepted.
func (h *AdminHandler) CreateService(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	svc := &models.Service{
		Platform:     req.Platform,
		ServiceType:  req.ServiceType,
		Name:         req.Name,
		JapServiceID: req.JapServiceID,
		BasePrice:    req.BasePrice,
		Markup:       req.Markup,
		MinQuantity:  req.MinQuantity,
		MaxQuantity:  req.MaxQuantity,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
	if svc.MinQuantity <= 0 {
		svc.MinQuantity = 1
	}
	if err := h.serviceRepo.Create(svc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create service"})
		return
	}
	c.JSON(http.StatusCreated, svc)
}

// UpdateService handles PATCH /admin/services/:id — partial update; FinalPrice is
// recomputed whenever base price or markup changes.
func (h *AdminHandler) UpdateService(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	svc, err := h.serviceRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return
	}
	var req struct {
		Platform     *string  `json:"platform"`
		ServiceType  *string  `json:"service_type"`
		Name         *string  `json:"name"`
		JapServiceID *int     `json:"jap_service_id"`
		BasePrice    *float64 `json:"base_price"`
		Markup       *float64 `json:"markup"`
		MinQuantity  *int     `json:"min_quantity"`
		MaxQuantity  *int     `json:"max_quantity"`
		IsActive     *bool    `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Platform != nil {
		svc.Platform = *req.Platform
	}
	if req.ServiceType != nil {
		svc.ServiceType = *req.ServiceType
	}
	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.JapServiceID != nil {
		svc.JapServiceID = *req.JapServiceID
	}
	if req.BasePrice != nil {
		svc.BasePrice = *req.BasePrice
	}
	if req.Markup != nil {
		svc.Markup = *req.Markup
	}
	if req.MinQuantity != nil {
		svc.MinQuantity = *req.MinQuantity
	}
	if req.MaxQuantity != nil {
		svc.MaxQuantity = *req.MaxQuantity
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}
	if err := h.serviceRepo.Update(svc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, svc)
}

// DeleteService handles DELETE /admin/services/:id.
func (h *AdminHandler) DeleteService(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.serviceRepo.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SyncServices handles POST /admin/services/sync?platform= — reconciles the local catalogue
// against the upstream panel.
func (h *AdminHandler) SyncServices(c *gin.Context) {
	res, err := h.catalog.Sync(c.Request.Context(), c.Query("platform"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream sync failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListCoupons handles GET /admin/coupons.
func (h *AdminHandler) ListCoupons(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.couponRepo.List(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list coupons"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// CreateCoupon handles POST /admin/coupons.
func (h *AdminHandler) CreateCoupon(c *gin.Context) {
	var coupon models.Coupon
	if err := c.ShouldBindJSON(&coupon); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if coupon.Code == "" || (coupon.Type != domain.CouponTypePercentage && coupon.Type != domain.CouponTypeFixed) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and a valid type are required"})
		return
	}
	if coupon.Status == "" {
		coupon.Status = domain.CouponStatusActive
	}
	coupon.RedemptionCount = 0
	if err := h.couponRepo.Create(&coupon); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "coupon code already exists"})
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

// UpdateCoupon handles PATCH /admin/coupons/:id.
func (h *AdminHandler) UpdateCoupon(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	coupon, err := h.couponRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "coupon not found"})
		return
	}
	var req struct {
		Type                  *string  `json:"type"`
		Value                 *float64 `json:"value"`
		Status                *string  `json:"status"`
		MaxRedemptions        *int     `json:"max_redemptions"`
		MaxRedemptionsPerUser *int     `json:"max_redemptions_per_user"`
		MinOrderAmount        *float64 `json:"min_order_amount"`
		ApplicableServices    *string  `json:"applicable_services"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type != nil {
		coupon.Type = *req.Type
	}
	if req.Value != nil {
		coupon.Value = *req.Value
	}
	if req.Status != nil {
		coupon.Status = *req.Status
	}
	if req.MaxRedemptions != nil {
		coupon.MaxRedemptions = *req.MaxRedemptions
	}
	if req.MaxRedemptionsPerUser != nil {
		coupon.MaxRedemptionsPerUser = *req.MaxRedemptionsPerUser
	}
	if req.MinOrderAmount != nil {
		coupon.MinOrderAmount = *req.MinOrderAmount
	}
	if req.ApplicableServices != nil {
		coupon.ApplicableServices = *req.ApplicableServices
	}
	if err := h.couponRepo.Update(coupon); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, coupon)
}

// DeleteCoupon handles DELETE /admin/coupons/:id.
func (h *AdminHandler) DeleteCoupon(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.couponRepo.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListRedemptions handles GET /admin/coupons/:id/redemptions.
func (h *AdminHandler) ListRedemptions(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	page, limit := parsePagination(c)
	list, total, err := h.couponRepo.ListRedemptions(uint(id), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list redemptions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// AdjustWallet handles POST /admin/wallets/:user_id/adjust — affiliate payout bookkeeping.
// Balance change and ledger row commit together or not at all.
func (h *AdminHandler) AdjustWallet(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req struct {
		AmountCents int64  `json:"amount_cents" binding:"required"`
		Note        string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err = h.walletRepo.Adjust(uint(userID), req.AmountCents, domain.WalletTxTypeAdminAdjustment, "admin", req.Note)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "adjustment failed"})
		return
	}
	adminID := adminUserID(c)
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     adminID,
		Action:     "wallet_adjustment",
		Resource:   "wallet",
		ResourceID: c.Param("user_id"),
		Detail:     req.Note,
		IP:         c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListWalletTransactions handles GET /admin/wallets/:user_id/transactions.
func (h *AdminHandler) ListWalletTransactions(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	page, limit := parsePagination(c)
	list, total, err := h.walletRepo.ListTransactions(uint(userID), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// GetSettings handles GET /admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingRepo.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

// UpdateSettings handles PUT /admin/settings.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req struct {
		Settings map[string]string `json:"settings" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for k, v := range req.Settings {
		if err := h.settingRepo.Set(k, v); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update setting: " + k})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListAuditLogs handles GET /admin/audit-logs.
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	action := c.Query("action")
	page, limit := parsePagination(c)
	list, total, err := h.auditRepo.List(action, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list audit logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// adminUserID adapts the context user id for nullable audit-log columns.
func adminUserID(c *gin.Context) *uint {
	if id := middleware.GetUserID(c); id != 0 {
		return &id
	}
	return nil
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
