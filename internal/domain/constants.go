package domain

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// Order lifecycle. Status only moves forward: PENDING_PAYMENT -> PROCESSING -> COMPLETED,
// with FAILED reachable from any state before completion.
const (
	OrderStatusPendingPayment = "PENDING_PAYMENT"
	OrderStatusProcessing     = "PROCESSING"
	OrderStatusCompleted      = "COMPLETED"
	OrderStatusFailed         = "FAILED"
)

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"
)

const (
	GatewayCryptomus  = "CRYPTOMUS"
	GatewayBigPayMe   = "BIGPAYME"
	GatewayMyFatoorah = "MYFATOORAH"
	GatewayCheckout   = "CHECKOUT"
)

const (
	CouponStatusActive   = "ACTIVE"
	CouponStatusInactive = "INACTIVE"
)

const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

const (
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
	PlatformYouTube   = "youtube"
)

const (
	ServiceTypeLikes     = "likes"
	ServiceTypeFollowers = "followers"
	ServiceTypeViews     = "views"
)

const (
	WalletTxTypeAffiliateCommission = "AFFILIATE_COMMISSION"
	WalletTxTypePayout              = "PAYOUT"
	WalletTxTypeAdminAdjustment     = "ADMIN_ADJUSTMENT"
)
