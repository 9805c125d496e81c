package config

import (
	"fmt"
	"os"
	"time"
)

// Config carries everything the binaries need from the environment. It is
// loaded once in main and passed into constructors; no component reads the
// environment on its own.
type Config struct {
	OrdersTable string
	LeaseTable  string

	StripeSecretKey     string
	StripeWebhookSecret string
	RedirectBase        string

	SenderEmail            string
	ReconciliationQueueURL string

	AdminToken string

	MetricsNamespace string
	LeaseTTL         time.Duration
	RequestTimeout   time.Duration
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		OrdersTable:            getEnv("ORDERS_TABLE", "agroverse-orders"),
		LeaseTable:             getEnv("LEASE_TABLE", "agroverse-leases"),
		StripeSecretKey:        os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:    os.Getenv("STRIPE_WEBHOOK_SECRET"),
		RedirectBase:           getEnv("CHECKOUT_REDIRECT_BASE", "https://www.agroverse.shop"),
		SenderEmail:            getEnv("SENDER_EMAIL", "orders@agroverse.shop"),
		ReconciliationQueueURL: os.Getenv("RECONCILIATION_QUEUE_URL"),
		AdminToken:             os.Getenv("ADMIN_TOKEN"),
		MetricsNamespace:       getEnv("METRICS_NAMESPACE", "AgroverseOrders"),
		LeaseTTL:               getDuration("DISPATCH_LEASE_TTL", 15*time.Minute),
		RequestTimeout:         getDuration("REQUEST_TIMEOUT", 10*time.Second),
	}
}

// ValidateAPI checks the keys the API server cannot run without.
func (c Config) ValidateAPI() error {
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	return nil
}

// ValidateDispatcher checks the keys the dispatcher cannot run without.
func (c Config) ValidateDispatcher() error {
	if c.SenderEmail == "" {
		return fmt.Errorf("SENDER_EMAIL is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
