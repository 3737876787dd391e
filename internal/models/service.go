package models

import (
	"time"

	"gorm.io/gorm"
)

// Service is one sellable engagement package. FinalPrice is always BasePrice + Markup and is
// recomputed whenever either component changes (rate is per 1000 units, mirroring the panel).
type Service struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Platform     string         `gorm:"size:20;not null;index" json:"platform"`
	ServiceType  string         `gorm:"size:20;not null;index" json:"service_type"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	JapServiceID int            `gorm:"index" json:"jap_service_id"` // upstream panel service id; 0 = not deliverable upstream
	BasePrice    float64        `gorm:"not null" json:"base_price"`
	Markup       float64        `gorm:"not null;default:0" json:"markup"`
	FinalPrice   float64        `gorm:"not null" json:"final_price"`
	MinQuantity  int            `gorm:"default:1" json:"min_quantity"`
	MaxQuantity  int            `gorm:"default:0" json:"max_quantity"` // 0 = unlimited
	IsActive     bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Service) TableName() string {
	return "services"
}
