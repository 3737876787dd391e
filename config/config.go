package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	SMTP       SMTPConfig
	App        AppConfig
	Cryptomus  CryptomusConfig
	BigPayMe   BigPayMeConfig
	MyFatoorah MyFatoorahConfig
	Checkout   CheckoutConfig
	Jap        JapConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// AppConfig carries the public base URL used to build gateway return/callback URLs,
// plus the storefront currency and the seeded admin credentials.
type AppConfig struct {
	BaseURL       string
	Currency      string
	AdminEmail    string
	AdminPassword string
}

type CryptomusConfig struct {
	BaseURL    string
	MerchantID string
	APIKey     string
}

type BigPayMeConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
}

// MyFatoorahConfig.WebhookSecret is the base64-encoded secret as issued by the MyFatoorah
// portal; it is decoded to raw bytes before HMAC verification.
type MyFatoorahConfig struct {
	BaseURL       string
	APIToken      string
	WebhookSecret string
}

type CheckoutConfig struct {
	BaseURL   string
	SecretKey string
}

// JapConfig points at the upstream SMM panel that performs the actual delivery.
type JapConfig struct {
	BaseURL string
	APIKey  string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         env("PORT", "8080"),
			Env:          env("APP_ENV", "development"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             env("DATABASE_DSN", "likesio:likesio@tcp(localhost:3306)/likesio?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  env("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: env("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "likesio",
		},
		SMTP: SMTPConfig{
			Host:     env("SMTP_HOST", ""),
			Port:     envInt("SMTP_PORT", 587),
			Username: env("SMTP_USERNAME", ""),
			Password: env("SMTP_PASSWORD", ""),
			From:     env("SMTP_FROM", "support@likes.io"),
		},
		App: AppConfig{
			BaseURL:       env("APP_BASE_URL", "https://likes.io"),
			Currency:      env("APP_CURRENCY", "USD"),
			AdminEmail:    env("ADMIN_EMAIL", "admin@likes.io"),
			AdminPassword: env("ADMIN_PASSWORD", "change-me-admin"),
		},
		Cryptomus: CryptomusConfig{
			BaseURL:    env("CRYPTOMUS_BASE_URL", "https://api.cryptomus.com"),
			MerchantID: env("CRYPTOMUS_MERCHANT_ID", ""),
			APIKey:     env("CRYPTOMUS_API_KEY", ""),
		},
		BigPayMe: BigPayMeConfig{
			BaseURL:       env("BIGPAYME_BASE_URL", "https://api.bigpayme.com"),
			APIKey:        env("BIGPAYME_API_KEY", ""),
			WebhookSecret: env("BIGPAYME_WEBHOOK_SECRET", ""),
		},
		MyFatoorah: MyFatoorahConfig{
			BaseURL:       env("MYFATOORAH_BASE_URL", "https://api.myfatoorah.com"),
			APIToken:      env("MYFATOORAH_API_TOKEN", ""),
			WebhookSecret: env("MYFATOORAH_WEBHOOK_SECRET", ""),
		},
		Checkout: CheckoutConfig{
			BaseURL:   env("CHECKOUT_BASE_URL", "https://api.checkout.com"),
			SecretKey: env("CHECKOUT_SECRET_KEY", ""),
		},
		Jap: JapConfig{
			BaseURL: env("JAP_BASE_URL", "https://justanotherpanel.com/api/v2"),
			APIKey:  env("JAP_API_KEY", ""),
		},
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
