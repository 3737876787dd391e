package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is a customer purchase of one engagement package. Status is mutated only by the
// webhook handlers and the admin override endpoints.
type Order struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      *uint          `gorm:"index" json:"user_id"` // nil for guest checkout
	ServiceID   uint           `gorm:"not null;index" json:"service_id"`
	Platform    string         `gorm:"size:20;not null" json:"platform"`
	ServiceType string         `gorm:"size:20;not null" json:"service_type"`
	Quantity    int            `gorm:"not null" json:"quantity"`
	Price       float64        `gorm:"not null" json:"price"`
	Currency    string         `gorm:"size:3;default:'USD'" json:"currency"`
	Status      string         `gorm:"size:20;not null;index" json:"status"` // PENDING_PAYMENT, PROCESSING, COMPLETED, FAILED
	Link        string         `gorm:"size:512" json:"link"`                 // target profile/post URL
	Email       string         `gorm:"size:255" json:"email"`                // confirmation address (guests have no user row)
	JapOrderID  string         `gorm:"size:64;index" json:"jap_order_id"`    // upstream panel tracking id
	JapStatus   string         `gorm:"size:32" json:"jap_status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Service  Service   `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Payments []Payment `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
}

// IsTerminal reports whether the order must not be re-processed by a later webhook delivery.
func (o *Order) IsTerminal() bool {
	return o.Status == "COMPLETED" || o.Status == "FAILED"
}

func (Order) TableName() string {
	return "orders"
}
