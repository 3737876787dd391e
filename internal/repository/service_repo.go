package repository

import (
	"likesio/internal/models"

	"gorm.io/gorm"
)

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// Create stores a service, recomputing FinalPrice from its components.
func (r *ServiceRepository) Create(s *models.Service) error {
	s.FinalPrice = s.BasePrice + s.Markup
	return r.db.Create(s).Error
}

func (r *ServiceRepository) GetByID(id uint) (*models.Service, error) {
	var s models.Service
	if err := r.db.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServiceRepository) GetByJapServiceID(japID int) (*models.Service, error) {
	var s models.Service
	if err := r.db.Where("jap_service_id = ?", japID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Update saves the service, recomputing FinalPrice so base price and markup can never
// drift from it.
func (r *ServiceRepository) Update(s *models.Service) error {
	s.FinalPrice = s.BasePrice + s.Markup
	return r.db.Save(s).Error
}

func (r *ServiceRepository) Delete(id uint) error {
	return r.db.Delete(&models.Service{}, id).Error
}

// ListActive returns the storefront catalogue, optionally filtered.
func (r *ServiceRepository) ListActive(platform, serviceType string) ([]models.Service, error) {
	q := r.db.Where("is_active = ?", true)
	if platform != "" {
		q = q.Where("platform = ?", platform)
	}
	if serviceType != "" {
		q = q.Where("service_type = ?", serviceType)
	}
	var list []models.Service
	err := q.Order("platform, service_type, final_price").Find(&list).Error
	return list, err
}

func (r *ServiceRepository) List(page, limit int) ([]models.Service, int64, error) {
	var total int64
	r.db.Model(&models.Service{}).Count(&total)
	var list []models.Service
	err := r.db.Order("id").Offset((page - 1) * limit).Limit(limit).Find(&list).Error
	return list, total, err
}
