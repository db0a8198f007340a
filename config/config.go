package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Checkout  CheckoutConfig
	Square    SquareConfig
	PayChangu PayChanguConfig
	Rates     RatesConfig
	Catalog   CatalogConfig
	Plans     PlansConfig
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

// JWTConfig validates access tokens issued by the external auth service.
type JWTConfig struct {
	AccessSecret string
	Issuer       string
}

type CheckoutConfig struct {
	// PendingMaxAge is how long a CREATED/REDIRECTED transaction may sit
	// before a verify attempt (or the sweeper) declares it EXPIRED.
	PendingMaxAge time.Duration
	VerifyTimeout time.Duration
	SweepInterval time.Duration
	SuccessURL    string
	CancelURL     string
}

type SquareConfig struct {
	BaseURL     string
	AccessToken string
	LocationID  string
}

type PayChanguConfig struct {
	BaseURL   string
	SecretKey string
}

type RatesConfig struct {
	BaseURL         string // empty disables live refresh
	APIKey          string
	RefreshInterval time.Duration
	GBPToMWK        float64 // static fallback rate
}

type CatalogConfig struct {
	BaseURL string // empty disables price cross-checks and order reads
	APIKey  string
}

type PlansConfig struct {
	PlusMonthlyPence    int64
	PremiumMonthlyPence int64
}

func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8088"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DB_DSN", "nthanda:nthanda@tcp(localhost:3306)/nthanda?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret: getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			Issuer:       getenv("JWT_ISSUER", "nthanda"),
		},
		Checkout: CheckoutConfig{
			PendingMaxAge: getduration("CHECKOUT_PENDING_MAX_AGE", 30*time.Minute),
			VerifyTimeout: getduration("CHECKOUT_VERIFY_TIMEOUT", 15*time.Second),
			SweepInterval: getduration("CHECKOUT_SWEEP_INTERVAL", 5*time.Minute),
			SuccessURL:    getenv("CHECKOUT_SUCCESS_URL", "https://shop.nthanda.mw/checkout/success"),
			CancelURL:     getenv("CHECKOUT_CANCEL_URL", "https://shop.nthanda.mw/checkout/cancel"),
		},
		Square: SquareConfig{
			BaseURL:     getenv("SQUARE_BASE_URL", "https://connect.squareup.com"),
			AccessToken: getenv("SQUARE_ACCESS_TOKEN", ""),
			LocationID:  getenv("SQUARE_LOCATION_ID", ""),
		},
		PayChangu: PayChanguConfig{
			BaseURL:   getenv("PAYCHANGU_BASE_URL", "https://api.paychangu.com"),
			SecretKey: getenv("PAYCHANGU_SECRET_KEY", ""),
		},
		Rates: RatesConfig{
			BaseURL:         getenv("RATES_BASE_URL", ""),
			APIKey:          getenv("RATES_API_KEY", ""),
			RefreshInterval: getduration("RATES_REFRESH_INTERVAL", time.Hour),
			GBPToMWK:        getfloat("RATES_GBP_MWK", 2358),
		},
		Catalog: CatalogConfig{
			BaseURL: getenv("CATALOG_BASE_URL", ""),
			APIKey:  getenv("CATALOG_API_KEY", ""),
		},
		Plans: PlansConfig{
			PlusMonthlyPence:    getint64("PLAN_PLUS_MONTHLY_PENCE", 499),
			PremiumMonthlyPence: getint64("PLAN_PREMIUM_MONTHLY_PENCE", 999),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getfloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getint64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
