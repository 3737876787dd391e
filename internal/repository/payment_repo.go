package repository

import (
	"likesio/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByGatewayTxn resolves an inbound webhook to a payment row. TransactionID alone is not
// trusted to be globally unique, only per gateway.
func (r *PaymentRepository) GetByGatewayTxn(gatewayName, transactionID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("gateway = ? AND transaction_id = ?", gatewayName, transactionID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetLatestByOrderID returns the most recent payment attempt for an order.
func (r *PaymentRepository) GetLatestByOrderID(orderID uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) Update(p *models.Payment) error {
	return r.db.Save(p).Error
}

func (r *PaymentRepository) List(status, gatewayName string, page, limit int) ([]models.Payment, int64, error) {
	q := r.db.Model(&models.Payment{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if gatewayName != "" {
		q = q.Where("gateway = ?", gatewayName)
	}
	var total int64
	q.Count(&total)
	var list []models.Payment
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&list).Error
	return list, total, err
}
