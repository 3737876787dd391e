package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"likesio/internal/domain"
	"likesio/internal/models"
	"likesio/internal/repository"
	"likesio/internal/service"
	"likesio/pkg/gateway"
	"likesio/pkg/smm"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testCryptomusKey      = "cryptomus-key"
	testBigPayMeSecret    = "bigpayme-secret"
	testMyFatoorahSecret  = "bXlmYXRvb3JhaC1zZWNyZXQ=" // base64("myfatoorah-secret")
	testUpstreamServiceID = 1234
)

type webhookFixture struct {
	db       *gorm.DB
	engine   *gin.Engine
	addCalls *atomic.Int64
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
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

	var addCalls atomic.Int64
	panelSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("action") == "add" {
			addCalls.Add(1)
		}
		w.Write([]byte(`{"order":555}`))
	}))
	t.Cleanup(panelSrv.Close)

	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	coupons := service.NewCouponService(repository.NewCouponRepository(db))
	emails := service.NewEmailService(nil)
	notifs := service.NewNotificationService(repository.NewNotificationRepository(db))
	panel := smm.NewClient(panelSrv.URL, "test-key")
	processor := service.NewOrderProcessor(orderRepo, paymentRepo, serviceRepo, auditRepo, coupons, emails, notifs, panel)

	cryptomusClient := gateway.NewCryptomusClient("", "merchant", testCryptomusKey)
	bigPayMeClient := gateway.NewBigPayMeClient("", "api-key", testBigPayMeSecret)
	myFatoorahClient := gateway.NewMyFatoorahClient("", "token", testMyFatoorahSecret)

	engine := gin.New()
	engine.POST("/webhooks/cryptomus", NewCryptomusWebhookHandler(cryptomusClient, paymentRepo, processor).Handle)
	engine.POST("/webhooks/bigpayme", NewBigPayMeWebhookHandler(bigPayMeClient, paymentRepo, processor).Handle)
	engine.POST("/webhooks/myfatoorah", NewMyFatoorahWebhookHandler(myFatoorahClient, paymentRepo, processor).Handle)

	return &webhookFixture{db: db, engine: engine, addCalls: &addCalls}
}

func (f *webhookFixture) seedOrder(t *testing.T, gatewayName, txnID string) (*models.Order, *models.Payment) {
	t.Helper()
	svc := &models.Service{Platform: "instagram", ServiceType: "likes", Name: "Instagram Likes", JapServiceID: testUpstreamServiceID, BasePrice: 0.9, Markup: 0.1, FinalPrice: 1.0, MinQuantity: 10}
	require.NoError(t, f.db.Create(svc).Error)
	order := &models.Order{ServiceID: svc.ID, Platform: "instagram", ServiceType: "likes", Quantity: 500, Price: 0.5, Status: domain.OrderStatusPendingPayment, Link: "https://instagram.com/p/abc", Email: "buyer@example.com"}
	require.NoError(t, f.db.Create(order).Error)
	payment := &models.Payment{OrderID: order.ID, Gateway: gatewayName, TransactionID: txnID, Amount: 0.5, Status: domain.PaymentStatusPending}
	require.NoError(t, f.db.Create(payment).Error)
	return order, payment
}

func (f *webhookFixture) post(path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestCryptomusWebhookSuccess(t *testing.T) {
	f := newWebhookFixture(t)
	order, payment := f.seedOrder(t, domain.GatewayCryptomus, "cm-uuid-1")

	body := []byte(`{"uuid":"cm-uuid-1","order_id":"ref-1","payment_status":"paid","amount":"0.50","currency":"USD"}`)
	w := f.post("/webhooks/cryptomus", body, map[string]string{"sign": gateway.CryptomusSign(body, testCryptomusKey)})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())

	var gotPayment models.Payment
	require.NoError(t, f.db.First(&gotPayment, payment.ID).Error)
	assert.Equal(t, domain.PaymentStatusSuccess, gotPayment.Status)

	var gotOrder models.Order
	require.NoError(t, f.db.First(&gotOrder, order.ID).Error)
	assert.Equal(t, domain.OrderStatusProcessing, gotOrder.Status)
	assert.Equal(t, "555", gotOrder.JapOrderID)
	assert.Equal(t, int64(1), f.addCalls.Load())
}

func TestCryptomusWebhookRedelivery(t *testing.T) {
	f := newWebhookFixture(t)
	f.seedOrder(t, domain.GatewayCryptomus, "cm-uuid-1")

	body := []byte(`{"uuid":"cm-uuid-1","payment_status":"paid"}`)
	headers := map[string]string{"sign": gateway.CryptomusSign(body, testCryptomusKey)}
	assert.Equal(t, http.StatusOK, f.post("/webhooks/cryptomus", body, headers).Code)
	assert.Equal(t, http.StatusOK, f.post("/webhooks/cryptomus", body, headers).Code)

	assert.Equal(t, int64(1), f.addCalls.Load(), "redelivery must not duplicate the upstream order")
	var redemptions int64
	f.db.Model(&models.CouponRedemption{}).Count(&redemptions)
	assert.Zero(t, redemptions)
}

func TestCryptomusWebhookBadSignature(t *testing.T) {
	f := newWebhookFixture(t)
	order, payment := f.seedOrder(t, domain.GatewayCryptomus, "cm-uuid-1")

	body := []byte(`{"uuid":"cm-uuid-1","payment_status":"paid"}`)
	w := f.post("/webhooks/cryptomus", body, map[string]string{"sign": "forged"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var gotPayment models.Payment
	require.NoError(t, f.db.First(&gotPayment, payment.ID).Error)
	assert.Equal(t, domain.PaymentStatusPending, gotPayment.Status, "no state change on rejected signature")
	var gotOrder models.Order
	require.NoError(t, f.db.First(&gotOrder, order.ID).Error)
	assert.Equal(t, domain.OrderStatusPendingPayment, gotOrder.Status)
	assert.Zero(t, f.addCalls.Load())
}

func TestCryptomusWebhookUnknownTransaction(t *testing.T) {
	f := newWebhookFixture(t)

	body := []byte(`{"uuid":"never-seen","payment_status":"paid"}`)
	w := f.post("/webhooks/cryptomus", body, map[string]string{"sign": gateway.CryptomusSign(body, testCryptomusKey)})

	// Unknown but authentic events are acknowledged so the provider stops retrying.
	assert.Equal(t, http.StatusOK, w.Code)
	var payments int64
	f.db.Model(&models.Payment{}).Count(&payments)
	assert.Zero(t, payments)
	assert.Zero(t, f.addCalls.Load())
}

func TestCryptomusWebhookIntermediateStatus(t *testing.T) {
	f := newWebhookFixture(t)
	order, payment := f.seedOrder(t, domain.GatewayCryptomus, "cm-uuid-1")

	body := []byte(`{"uuid":"cm-uuid-1","payment_status":"wait_for_payment"}`)
	w := f.post("/webhooks/cryptomus", body, map[string]string{"sign": gateway.CryptomusSign(body, testCryptomusKey)})

	assert.Equal(t, http.StatusOK, w.Code)
	var gotPayment models.Payment
	require.NoError(t, f.db.First(&gotPayment, payment.ID).Error)
	assert.Equal(t, domain.PaymentStatusPending, gotPayment.Status)
	assert.Contains(t, gotPayment.WebhookData, "wait_for_payment", "snapshot stored for support visibility")
	var gotOrder models.Order
	require.NoError(t, f.db.First(&gotOrder, order.ID).Error)
	assert.Equal(t, domain.OrderStatusPendingPayment, gotOrder.Status)
	assert.Zero(t, f.addCalls.Load())
}

func TestCryptomusWebhookMalformedBody(t *testing.T) {
	f := newWebhookFixture(t)

	body := []byte(`{not json`)
	w := f.post("/webhooks/cryptomus", body, map[string]string{"sign": gateway.CryptomusSign(body, testCryptomusKey)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBigPayMeWebhookSuccess(t *testing.T) {
	f := newWebhookFixture(t)
	order, payment := f.seedOrder(t, domain.GatewayBigPayMe, "bp-77")

	body := []byte(`{"data":{"id":"bp-77","status":"completed","amount":0.5,"currency":"USD","metadata":{"orderId":"ref-1"}}}`)
	w := f.post("/webhooks/bigpayme", body, map[string]string{
		"x-bigpayme-signature": gateway.BigPayMeSignature(body, testBigPayMeSecret),
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var gotPayment models.Payment
	require.NoError(t, f.db.First(&gotPayment, payment.ID).Error)
	assert.Equal(t, domain.PaymentStatusSuccess, gotPayment.Status)
	var gotOrder models.Order
	require.NoError(t, f.db.First(&gotOrder, order.ID).Error)
	assert.Equal(t, domain.OrderStatusProcessing, gotOrder.Status)
}

func TestBigPayMeWebhookFailure(t *testing.T) {
	f := newWebhookFixture(t)
	order, _ := f.seedOrder(t, domain.GatewayBigPayMe, "bp-77")

	body := []byte(`{"data":{"id":"bp-77","status":"failed"}}`)
	w := f.post("/webhooks/bigpayme", body, map[string]string{
		"x-bigpayme-signature": gateway.BigPayMeSignature(body, testBigPayMeSecret),
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var gotOrder models.Order
	require.NoError(t, f.db.First(&gotOrder, order.ID).Error)
	assert.Equal(t, domain.OrderStatusFailed, gotOrder.Status)
	assert.Zero(t, f.addCalls.Load())
}

func TestBigPayMeWebhookMerchantReferenceFallback(t *testing.T) {
	f := newWebhookFixture(t)
	order, payment := f.seedOrder(t, domain.GatewayBigPayMe, "bp-sess-1")

	// Event types that omit the session id still echo the merchant reference, whose
	// prefix is the local order id.
	body := []byte(fmt.Sprintf(`{"data":{"id":"bp-evt-9","status":"completed","metadata":{"orderId":"%d-4f9d"}}}`, order.ID))
	w := f.post("/webhooks/bigpayme", body, map[string]string{
		"x-bigpayme-signature": gateway.BigPayMeSignature(body, testBigPayMeSecret),
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var gotPayment models.Payment
	require.NoError(t, f.db.First(&gotPayment, payment.ID).Error)
	assert.Equal(t, domain.PaymentStatusSuccess, gotPayment.Status)
	var gotOrder models.Order
	require.NoError(t, f.db.First(&gotOrder, order.ID).Error)
	assert.Equal(t, domain.OrderStatusProcessing, gotOrder.Status)
	assert.Equal(t, int64(1), f.addCalls.Load())
}

func TestBigPayMeWebhookMerchantReferenceWrongGateway(t *testing.T) {
	f := newWebhookFixture(t)
	// Order paid through Cryptomus; a BigPayMe callback naming it must not match.
	order, payment := f.seedOrder(t, domain.GatewayCryptomus, "cm-uuid-1")

	body := []byte(fmt.Sprintf(`{"data":{"id":"bp-evt-9","status":"completed","metadata":{"orderId":"%d-4f9d"}}}`, order.ID))
	w := f.post("/webhooks/bigpayme", body, map[string]string{
		"x-bigpayme-signature": gateway.BigPayMeSignature(body, testBigPayMeSecret),
	})

	assert.Equal(t, http.StatusOK, w.Code, "acknowledged as unknown")
	var gotPayment models.Payment
	require.NoError(t, f.db.First(&gotPayment, payment.ID).Error)
	assert.Equal(t, domain.PaymentStatusPending, gotPayment.Status)
	assert.Zero(t, f.addCalls.Load())
}

func TestMyFatoorahWebhookSuccess(t *testing.T) {
	f := newWebhookFixture(t)
	order, _ := f.seedOrder(t, domain.GatewayMyFatoorah, "123456")

	body := []byte(`{"Data":{"InvoiceId":123456,"TransactionStatus":"Success"}}`)
	sig, err := gateway.MyFatoorahSignature(body, testMyFatoorahSecret)
	require.NoError(t, err)
	w := f.post("/webhooks/myfatoorah", body, map[string]string{"myfatoorah-signature": sig})

	assert.Equal(t, http.StatusOK, w.Code)
	var gotOrder models.Order
	require.NoError(t, f.db.First(&gotOrder, order.ID).Error)
	assert.Equal(t, domain.OrderStatusProcessing, gotOrder.Status)
}

func TestMyFatoorahWebhookTampered(t *testing.T) {
	f := newWebhookFixture(t)
	order, payment := f.seedOrder(t, domain.GatewayMyFatoorah, "123456")

	body := []byte(`{"Data":{"InvoiceId":123456,"TransactionStatus":"Success"}}`)
	sig, err := gateway.MyFatoorahSignature(body, testMyFatoorahSecret)
	require.NoError(t, err)
	// Signature was computed over a different payload.
	tampered := []byte(`{"Data":{"InvoiceId":123456,"TransactionStatus":"Failed"}}`)
	w := f.post("/webhooks/myfatoorah", tampered, map[string]string{"myfatoorah-signature": sig})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var gotPayment models.Payment
	require.NoError(t, f.db.First(&gotPayment, payment.ID).Error)
	assert.Equal(t, domain.PaymentStatusPending, gotPayment.Status)
	var gotOrder models.Order
	require.NoError(t, f.db.First(&gotOrder, order.ID).Error)
	assert.Equal(t, domain.OrderStatusPendingPayment, gotOrder.Status)
}

func TestWebhookGatewaysDoNotCrossMatch(t *testing.T) {
	f := newWebhookFixture(t)
	// A BigPayMe payment whose transaction id happens to collide with a Cryptomus uuid.
	f.seedOrder(t, domain.GatewayBigPayMe, "shared-id")

	body := []byte(`{"uuid":"shared-id","payment_status":"paid"}`)
	w := f.post("/webhooks/cryptomus", body, map[string]string{"sign": gateway.CryptomusSign(body, testCryptomusKey)})

	assert.Equal(t, http.StatusOK, w.Code, "acknowledged as unknown")
	var gotPayment models.Payment
	require.NoError(t, f.db.Where("transaction_id = ?", "shared-id").First(&gotPayment).Error)
	assert.Equal(t, domain.PaymentStatusPending, gotPayment.Status, "lookup is scoped per gateway")
}
