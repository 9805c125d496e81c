package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ORDERS_TABLE", "")
	t.Setenv("DISPATCH_LEASE_TTL", "")

	cfg := Load()
	if cfg.OrdersTable != "agroverse-orders" {
		t.Fatalf("orders table default: %s", cfg.OrdersTable)
	}
	if cfg.LeaseTTL != 15*time.Minute {
		t.Fatalf("lease ttl default: %v", cfg.LeaseTTL)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("request timeout default: %v", cfg.RequestTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ORDERS_TABLE", "orders-prod")
	t.Setenv("DISPATCH_LEASE_TTL", "30m")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")

	cfg := Load()
	if cfg.OrdersTable != "orders-prod" {
		t.Fatalf("orders table override: %s", cfg.OrdersTable)
	}
	if cfg.LeaseTTL != 30*time.Minute {
		t.Fatalf("lease ttl override: %v", cfg.LeaseTTL)
	}
	if err := cfg.ValidateAPI(); err != nil {
		t.Fatalf("validate api: %v", err)
	}
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("DISPATCH_LEASE_TTL", "not-a-duration")
	if cfg := Load(); cfg.LeaseTTL != 15*time.Minute {
		t.Fatalf("bad duration must fall back, got %v", cfg.LeaseTTL)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	t.Setenv("SENDER_EMAIL", "")

	cfg := Load()
	if err := cfg.ValidateAPI(); err == nil {
		t.Fatalf("expected error without stripe keys")
	}
	// sender has a default, so the dispatcher config is complete
	if err := cfg.ValidateDispatcher(); err != nil {
		t.Fatalf("validate dispatcher: %v", err)
	}
}
