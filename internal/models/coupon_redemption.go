package models

import (
	"time"
)

// CouponRedemption records one coupon application to one order. At most one row exists per
// OrderID; the unique index backs the existence check that keeps duplicate webhook
// deliveries from double-counting a coupon use.
type CouponRedemption struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CouponID       uint      `gorm:"not null;index" json:"coupon_id"`
	UserID         *uint     `gorm:"index" json:"user_id"`
	OrderID        uint      `gorm:"not null;uniqueIndex" json:"order_id"`
	DiscountAmount float64   `gorm:"not null;default:0" json:"discount_amount"`
	RedeemedAt     time.Time `json:"redeemed_at"`

	Coupon Coupon `gorm:"foreignKey:CouponID" json:"-"`
}

func (CouponRedemption) TableName() string {
	return "coupon_redemptions"
}
