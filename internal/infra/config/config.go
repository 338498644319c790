// internal/infra/config/config.go
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all environment-derived settings for the storefront service.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// PublicOrigin is the absolute origin browsers reach the storefront on.
	// Checkout return URLs are derived from it; see PaymentSessionUsecase.
	PublicOrigin  string `env:"PUBLIC_ORIGIN" envDefault:"http://localhost:8080"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`

	// External collaborators.
	CartAPIBaseURL string `env:"CART_API_BASE_URL" envDefault:"http://localhost:9090"`
	GatewayBaseURL string `env:"GATEWAY_BASE_URL"`
	GatewayAPIKey  string `env:"GATEWAY_API_KEY"`

	// GCP project + credentials (Firestore cache, Firebase auth, GCS, SM).
	GCPProjectID     string `env:"GCP_PROJECT_ID"`
	GCPCreds         string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	ProductImageBkt  string `env:"PRODUCT_IMAGE_BUCKET"`
	GatewayKeySecret string `env:"GATEWAY_API_KEY_SECRET"`

	// Snapshot cache backend: "firestore" or "sqlite".
	CacheBackend string `env:"CACHE_BACKEND" envDefault:"sqlite"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"storefront.db"`

	// Order receipts (optional; orders endpoints disabled when empty).
	PostgresDSN string `env:"POSTGRES_DSN"`

	// Guest session cookie.
	GuestSessionSecret string `env:"GUEST_SESSION_SECRET" envDefault:"dev-only-secret"`
	GuestCookieName    string `env:"GUEST_COOKIE_NAME" envDefault:"pnoh_guest"`

	// Confirmation email (optional; skipped when key or sender empty).
	SendGridAPIKey       string `env:"SENDGRID_API_KEY"`
	SendGridAPIKeySecret string `env:"SENDGRID_API_KEY_SECRET"`
	OrderEmailFrom       string `env:"ORDER_EMAIL_FROM"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))
	return cfg, nil
}

// UseFirestoreCache reports whether the Firestore cache adapter is selected.
func (c *Config) UseFirestoreCache() bool {
	return c.CacheBackend == "firestore"
}

// OrdersEnabled reports whether the receipt store is configured.
func (c *Config) OrdersEnabled() bool {
	return strings.TrimSpace(c.PostgresDSN) != ""
}
