package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string   `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string   `env:"LOG_FORMAT" envDefault:"json"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:8080"`
	AppURL      string   `env:"APP_URL" envDefault:"http://localhost:8080"`

	// Empty DATABASE_URL runs against the in-memory store.
	DatabaseURL string `env:"DATABASE_URL"`
	DBMigrate   bool   `env:"DB_MIGRATE" envDefault:"false"`

	RedisURL string        `env:"REDIS_URL"`
	DedupTTL time.Duration `env:"DEDUP_TTL" envDefault:"72h"`
	AMQPURL  string        `env:"AMQP_URL"`

	StripeAPIKey        string `env:"STRIPE_API_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	SupabaseURL            string `env:"SUPABASE_URL"`
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`

	GHLAPIKey        string  `env:"GHL_API_KEY"`
	GHLAPIBase       string  `env:"GHL_API_BASE" envDefault:"https://services.leadconnectorhq.com"`
	GHLWebhookSecret string  `env:"GHL_WEBHOOK_SECRET"`
	GHLRateLimit     float64 `env:"GHL_RATE_LIMIT" envDefault:"5"`

	ProvisionDelay    time.Duration `env:"PROVISION_DELAY" envDefault:"1s"`
	ProvisionAttempts int           `env:"PROVISION_ATTEMPTS" envDefault:"2"`
	PlanCatalogPath   string        `env:"PLAN_CATALOG_PATH"`

	MailHost string `env:"MAIL_HOST"`
	MailPort int    `env:"MAIL_PORT" envDefault:"587"`
	MailUser string `env:"MAIL_USER"`
	MailPass string `env:"MAIL_PASS"`
	MailFrom string `env:"MAIL_FROM" envDefault:"no-reply@saintvisionai.com"`
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ProvisionAttempts < 1 {
		return fmt.Errorf("PROVISION_ATTEMPTS must be at least 1, got %d", c.ProvisionAttempts)
	}
	if c.ProvisionDelay < 0 {
		return fmt.Errorf("PROVISION_DELAY must not be negative")
	}
	if c.GHLRateLimit <= 0 {
		return fmt.Errorf("GHL_RATE_LIMIT must be positive")
	}
	return nil
}
