package repository

import (
	"time"

	"likesio/internal/domain"
	"likesio/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalOrders      int64   `json:"total_orders"`
	PendingOrders    int64   `json:"pending_orders"`
	ProcessingOrders int64   `json:"processing_orders"`
	CompletedOrders  int64   `json:"completed_orders"`
	FailedOrders     int64   `json:"failed_orders"`
	TotalRevenue     float64 `json:"total_revenue"`
	TotalPayments    int64   `json:"total_payments"`
	ActiveServices   int64   `json:"active_services"`
	ActiveCoupons    int64   `json:"active_coupons"`
	TotalRedemptions int64   `json:"total_redemptions"`
}

type RevenuePoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	var s DashboardStats
	r.db.Model(&models.Order{}).Count(&s.TotalOrders)
	r.db.Model(&models.Order{}).Where("status = ?", domain.OrderStatusPendingPayment).Count(&s.PendingOrders)
	r.db.Model(&models.Order{}).Where("status = ?", domain.OrderStatusProcessing).Count(&s.ProcessingOrders)
	r.db.Model(&models.Order{}).Where("status = ?", domain.OrderStatusCompleted).Count(&s.CompletedOrders)
	r.db.Model(&models.Order{}).Where("status = ?", domain.OrderStatusFailed).Count(&s.FailedOrders)

	var rev struct{ Total float64 }
	r.db.Model(&models.Payment{}).Select("COALESCE(SUM(amount), 0) as total").
		Where("status = ?", domain.PaymentStatusSuccess).Scan(&rev)
	s.TotalRevenue = rev.Total

	r.db.Model(&models.Payment{}).Count(&s.TotalPayments)
	r.db.Model(&models.Service{}).Where("is_active = ?", true).Count(&s.ActiveServices)
	r.db.Model(&models.Coupon{}).Where("status = ?", domain.CouponStatusActive).Count(&s.ActiveCoupons)
	r.db.Model(&models.CouponRedemption{}).Count(&s.TotalRedemptions)
	return &s, nil
}

// RevenueByDay sums successful payment amounts per day for the last N days.
func (r *AdminRepository) RevenueByDay(days int) ([]RevenuePoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []RevenuePoint
	err := r.db.Model(&models.Payment{}).
		Select("DATE(created_at) as date, COALESCE(SUM(amount), 0) as amount").
		Where("status = ? AND created_at >= ?", domain.PaymentStatusSuccess, since).
		Group("DATE(created_at)").Order("date").Scan(&points).Error
	return points, err
}

func (r *AdminRepository) OrdersByDay(days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []TimeSeriesPoint
	err := r.db.Model(&models.Order{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").Order("date").Scan(&points).Error
	return points, err
}
