package repository

import (
	"likesio/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetWithDetails loads the order plus its service and payment rows, for the status endpoint.
func (r *OrderRepository) GetWithDetails(id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.Preload("Service").Preload("Payments").First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Update(o *models.Order) error {
	return r.db.Save(o).Error
}

func (r *OrderRepository) List(status, platform string, page, limit int) ([]models.Order, int64, error) {
	q := r.db.Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if platform != "" {
		q = q.Where("platform = ?", platform)
	}
	var total int64
	q.Count(&total)
	var list []models.Order
	err := q.Preload("Service").Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&list).Error
	return list, total, err
}
