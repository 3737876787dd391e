package service

import (
	"encoding/json"
	"testing"
	"time"

	"likesio/internal/domain"
	"likesio/internal/models"
	"likesio/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.Order{},
		&models.Payment{},
		&models.Coupon{},
		&models.CouponRedemption{},
		&models.Notification{},
		&models.AuditLog{},
	))
	return db
}

func seedCoupon(t *testing.T, db *gorm.DB, c *models.Coupon) *models.Coupon {
	t.Helper()
	if c.Status == "" {
		c.Status = domain.CouponStatusActive
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestValidateUnknownCode(t *testing.T) {
	svc := NewCouponService(repository.NewCouponRepository(newTestDB(t)))
	res, err := svc.Validate("NOPE", 10, "likes", nil)
	require.NoError(t, err, "an unknown code is a rejection, not an error")
	assert.False(t, res.Valid)
	assert.Equal(t, "Invalid coupon code", res.Message)
}

func TestValidateCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	seedCoupon(t, db, &models.Coupon{Code: "SAVE10", Type: "percentage", Value: 10})
	svc := NewCouponService(repository.NewCouponRepository(db))

	for _, code := range []string{"SAVE10", "save10", "Save10"} {
		res, err := svc.Validate(code, 20, "likes", nil)
		require.NoError(t, err)
		assert.True(t, res.Valid, "code %q", code)
	}
}

func TestValidateInactive(t *testing.T) {
	db := newTestDB(t)
	seedCoupon(t, db, &models.Coupon{Code: "OLD", Type: "fixed", Value: 5, Status: domain.CouponStatusInactive})
	svc := NewCouponService(repository.NewCouponRepository(db))

	res, err := svc.Validate("OLD", 20, "likes", nil)
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidateTimeWindow(t *testing.T) {
	db := newTestDB(t)
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)
	seedCoupon(t, db, &models.Coupon{Code: "SOON", Type: "fixed", Value: 5, StartsAt: &future})
	seedCoupon(t, db, &models.Coupon{Code: "GONE", Type: "fixed", Value: 5, ExpiresAt: &past})
	svc := NewCouponService(repository.NewCouponRepository(db))

	res, err := svc.Validate("SOON", 20, "likes", nil)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = svc.Validate("GONE", 20, "likes", nil)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "This coupon has expired", res.Message)
}

func TestValidateGlobalCap(t *testing.T) {
	db := newTestDB(t)
	coupon := seedCoupon(t, db, &models.Coupon{Code: "CAP2", Type: "fixed", Value: 1, MaxRedemptions: 2})
	require.NoError(t, db.Create(&models.CouponRedemption{CouponID: coupon.ID, OrderID: 1}).Error)
	require.NoError(t, db.Create(&models.CouponRedemption{CouponID: coupon.ID, OrderID: 2}).Error)
	svc := NewCouponService(repository.NewCouponRepository(db))

	res, err := svc.Validate("CAP2", 20, "likes", nil)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "This coupon has reached its usage limit", res.Message)
}

func TestValidatePerUserCap(t *testing.T) {
	db := newTestDB(t)
	coupon := seedCoupon(t, db, &models.Coupon{Code: "ONCE", Type: "fixed", Value: 1, MaxRedemptionsPerUser: 1})
	userID := uint(7)
	require.NoError(t, db.Create(&models.CouponRedemption{CouponID: coupon.ID, UserID: &userID, OrderID: 1}).Error)
	svc := NewCouponService(repository.NewCouponRepository(db))

	res, err := svc.Validate("ONCE", 20, "likes", &userID)
	require.NoError(t, err)
	assert.False(t, res.Valid, "the same user may not redeem twice")

	other := uint(8)
	res, err = svc.Validate("ONCE", 20, "likes", &other)
	require.NoError(t, err)
	assert.True(t, res.Valid, "another user is unaffected")

	// Guests have no identity to count against, so the per-user cap cannot apply.
	res, err = svc.Validate("ONCE", 20, "likes", nil)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateMinOrderAmount(t *testing.T) {
	db := newTestDB(t)
	seedCoupon(t, db, &models.Coupon{Code: "BIG", Type: "percentage", Value: 10, MinOrderAmount: 50})
	svc := NewCouponService(repository.NewCouponRepository(db))

	res, err := svc.Validate("BIG", 49.99, "likes", nil)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = svc.Validate("BIG", 50, "likes", nil)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateServiceFilter(t *testing.T) {
	db := newTestDB(t)
	seedCoupon(t, db, &models.Coupon{Code: "LIKESONLY", Type: "fixed", Value: 2, ApplicableServices: `["likes"]`})
	svc := NewCouponService(repository.NewCouponRepository(db))

	res, err := svc.Validate("LIKESONLY", 20, "likes", nil)
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = svc.Validate("LIKESONLY", 20, "followers", nil)
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestCouponDiscountCapped(t *testing.T) {
	percent := models.Coupon{Type: "percentage", Value: 25}
	assert.Equal(t, 5.0, percent.Discount(20))

	fixed := models.Coupon{Type: "fixed", Value: 30}
	assert.Equal(t, 20.0, fixed.Discount(20), "discount never exceeds the order amount")
}

func TestRecordRedemptionOncePerOrder(t *testing.T) {
	db := newTestDB(t)
	coupon := seedCoupon(t, db, &models.Coupon{Code: "SAVE10", Type: "percentage", Value: 10})
	svc := NewCouponService(repository.NewCouponRepository(db))

	meta, _ := json.Marshal(CouponMeta{CouponCode: "SAVE10", DiscountAmount: 2.5})
	order := &models.Order{ID: 1, ServiceID: 1, Quantity: 100, Price: 22.5, Status: domain.OrderStatusProcessing}
	require.NoError(t, db.Create(order).Error)
	payment := &models.Payment{OrderID: order.ID, Gateway: "CRYPTOMUS", TransactionID: "t-1", Amount: 22.5, Status: domain.PaymentStatusSuccess, WebhookData: string(meta)}

	require.NoError(t, svc.RecordRedemption(order, payment))
	// Duplicate webhook delivery: same order, second call is a no-op.
	require.NoError(t, svc.RecordRedemption(order, payment))

	var rows int64
	db.Model(&models.CouponRedemption{}).Where("order_id = ?", order.ID).Count(&rows)
	assert.Equal(t, int64(1), rows)

	var got models.Coupon
	require.NoError(t, db.First(&got, coupon.ID).Error)
	assert.Equal(t, 1, got.RedemptionCount, "counter must match the single redemption row")

	var red models.CouponRedemption
	require.NoError(t, db.Where("order_id = ?", order.ID).First(&red).Error)
	assert.Equal(t, 2.5, red.DiscountAmount)
}

func TestRecordRedemptionNoCoupon(t *testing.T) {
	db := newTestDB(t)
	svc := NewCouponService(repository.NewCouponRepository(db))

	order := &models.Order{ID: 1, ServiceID: 1, Quantity: 100, Price: 9}
	payment := &models.Payment{OrderID: 1, Gateway: "CRYPTOMUS", TransactionID: "t-2", WebhookData: ""}

	require.NoError(t, svc.RecordRedemption(order, payment))
	var rows int64
	db.Model(&models.CouponRedemption{}).Count(&rows)
	assert.Zero(t, rows)
}

func TestParseCouponMetaSurvivesWebhookMerge(t *testing.T) {
	meta, _ := json.Marshal(CouponMeta{CouponCode: "SAVE10", DiscountAmount: 2.5})
	merged := mergeWebhookData(string(meta), []byte(`{"payment_status":"paid"}`))

	got := ParseCouponMeta(merged)
	assert.Equal(t, "SAVE10", got.CouponCode)
	assert.Equal(t, 2.5, got.DiscountAmount)
}
