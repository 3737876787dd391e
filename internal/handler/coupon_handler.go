package handler

import (
	"net/http"

	"likesio/internal/service"

	"github.com/gin-gonic/gin"
)

type CouponHandler struct {
	coupons *service.CouponService
}

func NewCouponHandler(coupons *service.CouponService) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

// Validate handles POST /coupons/validate. Always answers 200; rejections are flagged in
// the body so the checkout UI renders them inline.
func (h *CouponHandler) Validate(c *gin.Context) {
	var req struct {
		Code        string  `json:"code" binding:"required"`
		OrderAmount float64 `json:"order_amount"`
		ServiceType string  `json:"service_type"`
		UserID      *uint   `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.coupons.Validate(req.Code, req.OrderAmount, req.ServiceType, req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}
