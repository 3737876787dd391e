package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Coupon struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	Code                  string         `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Type                  string         `gorm:"size:20;not null" json:"type"` // percentage | fixed
	Value                 float64        `gorm:"not null" json:"value"`
	Status                string         `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	StartsAt              *time.Time     `json:"starts_at"`
	ExpiresAt             *time.Time     `json:"expires_at"`
	MaxRedemptions        int            `gorm:"default:0" json:"max_redemptions"` // 0 = unlimited
	MaxRedemptionsPerUser int            `gorm:"default:0" json:"max_redemptions_per_user"`
	MinOrderAmount        float64        `gorm:"default:0" json:"min_order_amount"`
	ApplicableServices    string         `gorm:"type:text" json:"applicable_services"` // JSON array of service-type tags; empty = all
	RedemptionCount       int            `gorm:"default:0" json:"redemption_count"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

// AppliesTo checks serviceType against the applicable-services filter.
// An empty or unparsable filter means the coupon applies to every service.
func (c *Coupon) AppliesTo(serviceType string) bool {
	if c.ApplicableServices == "" {
		return true
	}
	var tags []string
	if err := json.Unmarshal([]byte(c.ApplicableServices), &tags); err != nil || len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if strings.EqualFold(t, serviceType) {
			return true
		}
	}
	return false
}

// Discount computes the discount for an order amount, capped at the amount itself.
func (c *Coupon) Discount(orderAmount float64) float64 {
	var d float64
	if c.Type == "percentage" {
		d = orderAmount * c.Value / 100
	} else {
		d = c.Value
	}
	if d > orderAmount {
		d = orderAmount
	}
	if d < 0 {
		d = 0
	}
	return d
}

func (Coupon) TableName() string {
	return "coupons"
}
