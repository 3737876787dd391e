package service

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"likesio/internal/domain"
	"likesio/internal/models"
	"likesio/internal/repository"

	"gorm.io/gorm"
)

// ValidationResult is always returned with HTTP 200; rejections carry a human-readable
// reason so the checkout UI can render inline feedback instead of handling error codes.
type ValidationResult struct {
	Valid   bool           `json:"valid"`
	Message string         `json:"message"`
	Coupon  *models.Coupon `json:"coupon,omitempty"`
}

// CouponMeta is the discount metadata smuggled through Payment.WebhookData between
// checkout-session creation and webhook processing, because the gateways do not reliably
// echo custom fields back on all callback types.
type CouponMeta struct {
	CouponCode     string  `json:"coupon_code,omitempty"`
	DiscountAmount float64 `json:"discount_amount,omitempty"`
}

type CouponService struct {
	couponRepo *repository.CouponRepository
}

func NewCouponService(couponRepo *repository.CouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

// Validate checks a code against status, time window, caps, minimum amount and the
// applicable-service filter. Every rejection is a result, never an error.
func (s *CouponService) Validate(code string, orderAmount float64, serviceType string, userID *uint) (*ValidationResult, error) {
	coupon, err := s.couponRepo.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationResult{Valid: false, Message: "Invalid coupon code"}, nil
		}
		return nil, err
	}
	if coupon.Status != domain.CouponStatusActive {
		return &ValidationResult{Valid: false, Message: "This coupon is no longer active"}, nil
	}
	now := time.Now()
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return &ValidationResult{Valid: false, Message: "This coupon is not active yet"}, nil
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return &ValidationResult{Valid: false, Message: "This coupon has expired"}, nil
	}
	if coupon.MaxRedemptions > 0 {
		used, err := s.couponRepo.CountRedemptions(coupon.ID)
		if err != nil {
			return nil, err
		}
		if used >= int64(coupon.MaxRedemptions) {
			return &ValidationResult{Valid: false, Message: "This coupon has reached its usage limit"}, nil
		}
	}
	if coupon.MaxRedemptionsPerUser > 0 && userID != nil {
		used, err := s.couponRepo.CountRedemptionsByUser(coupon.ID, *userID)
		if err != nil {
			return nil, err
		}
		if used >= int64(coupon.MaxRedemptionsPerUser) {
			return &ValidationResult{Valid: false, Message: "You have already used this coupon"}, nil
		}
	}
	if coupon.MinOrderAmount > 0 && orderAmount < coupon.MinOrderAmount {
		return &ValidationResult{Valid: false, Message: "Order amount is below the coupon minimum"}, nil
	}
	if !coupon.AppliesTo(serviceType) {
		return &ValidationResult{Valid: false, Message: "This coupon does not apply to the selected service"}, nil
	}
	return &ValidationResult{Valid: true, Message: "Coupon applied", Coupon: coupon}, nil
}

// RecordRedemption books the coupon use for an order exactly once. A second call for the
// same order (duplicate webhook delivery) is a no-op. The discount amount comes from the
// metadata stored in the payment at checkout time; when that was never populated the
// redemption is recorded with a zero amount.
func (s *CouponService) RecordRedemption(order *models.Order, payment *models.Payment) error {
	meta := ParseCouponMeta(payment.WebhookData)
	if meta.CouponCode == "" {
		return nil
	}
	exists, err := s.couponRepo.RedemptionExists(order.ID)
	if err != nil {
		return err
	}
	if exists {
		log.Printf("[Coupons] redemption already recorded for order %d — skipping", order.ID)
		return nil
	}
	coupon, err := s.couponRepo.GetByCode(meta.CouponCode)
	if err != nil {
		return err
	}
	red := &models.CouponRedemption{
		CouponID:       coupon.ID,
		UserID:         order.UserID,
		OrderID:        order.ID,
		DiscountAmount: meta.DiscountAmount,
	}
	if err := s.couponRepo.CreateRedemption(red); err != nil {
		return err
	}
	log.Printf("[Coupons] recorded redemption of %s for order %d (discount %.2f)", coupon.Code, order.ID, meta.DiscountAmount)
	return nil
}

// ParseCouponMeta extracts coupon metadata from a payment's WebhookData JSON blob.
func ParseCouponMeta(webhookData string) CouponMeta {
	var meta CouponMeta
	if webhookData != "" {
		_ = json.Unmarshal([]byte(webhookData), &meta)
	}
	return meta
}
