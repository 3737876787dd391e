package repository

import (
	"errors"
	"time"

	"likesio/internal/models"

	"gorm.io/gorm"
)

type CouponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

func (r *CouponRepository) Create(c *models.Coupon) error {
	return r.db.Create(c).Error
}

func (r *CouponRepository) GetByID(id uint) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByCode looks a coupon up case-insensitively.
func (r *CouponRepository) GetByCode(code string) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.db.Where("LOWER(code) = LOWER(?)", code).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CouponRepository) Update(c *models.Coupon) error {
	return r.db.Save(c).Error
}

func (r *CouponRepository) Delete(id uint) error {
	return r.db.Delete(&models.Coupon{}, id).Error
}

func (r *CouponRepository) List(page, limit int) ([]models.Coupon, int64, error) {
	var total int64
	r.db.Model(&models.Coupon{}).Count(&total)
	var list []models.Coupon
	err := r.db.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&list).Error
	return list, total, err
}

// RedemptionExists reports whether a redemption row already exists for the order.
func (r *CouponRepository) RedemptionExists(orderID uint) (bool, error) {
	var red models.CouponRedemption
	err := r.db.Where("order_id = ?", orderID).First(&red).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

func (r *CouponRepository) CountRedemptions(couponID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.CouponRedemption{}).Where("coupon_id = ?", couponID).Count(&n).Error
	return n, err
}

func (r *CouponRepository) CountRedemptionsByUser(couponID, userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.CouponRedemption{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).Count(&n).Error
	return n, err
}

// CreateRedemption inserts the redemption row and bumps the coupon counter.
func (r *CouponRepository) CreateRedemption(red *models.CouponRedemption) error {
	if red.RedeemedAt.IsZero() {
		red.RedeemedAt = time.Now()
	}
	if err := r.db.Create(red).Error; err != nil {
		return err
	}
	return r.db.Model(&models.Coupon{}).Where("id = ?", red.CouponID).
		UpdateColumn("redemption_count", gorm.Expr("redemption_count + 1")).Error
}

func (r *CouponRepository) ListRedemptions(couponID uint, page, limit int) ([]models.CouponRedemption, int64, error) {
	q := r.db.Model(&models.CouponRedemption{})
	if couponID != 0 {
		q = q.Where("coupon_id = ?", couponID)
	}
	var total int64
	q.Count(&total)
	var list []models.CouponRedemption
	err := q.Order("redeemed_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&list).Error
	return list, total, err
}
