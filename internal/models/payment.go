package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment is one checkout attempt against a gateway. An order may accumulate several rows
// across retries; TransactionID is the gateway's own identifier and is the correlation key
// for inbound webhooks (unique per gateway).
type Payment struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OrderID       uint           `gorm:"not null;index" json:"order_id"`
	Gateway       string         `gorm:"size:20;not null;uniqueIndex:idx_payments_gateway_txn" json:"gateway"`
	TransactionID string         `gorm:"size:255;not null;uniqueIndex:idx_payments_gateway_txn" json:"transaction_id"`
	Amount        float64        `gorm:"not null" json:"amount"`
	Currency      string         `gorm:"size:3;default:'USD'" json:"currency"`
	Status        string         `gorm:"size:20;not null;index" json:"status"` // PENDING, SUCCESS, FAILED
	WebhookData   string         `gorm:"type:text" json:"-"`                   // JSON: coupon metadata from checkout + last webhook snapshot
	CompletedAt   *time.Time     `json:"completed_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Order Order `gorm:"foreignKey:OrderID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
