package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "GIFTCHECKOUT"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv        = "GIFTCHECKOUT_APP_ENV"
	EnvPort          = "GIFTCHECKOUT_APP_PORT"
	EnvRedisURL      = "GIFTCHECKOUT_REDIS_URL"
	EnvRiseAPIToken  = "GIFTCHECKOUT_RISE_API_TOKEN"
	EnvRiseAccountID = "GIFTCHECKOUT_RISE_ACCOUNT_ID"
)

type Config struct {
	App     AppConfig
	Rise    RiseConfig
	Redis   RedisConfig
	Cart    CartConfig
	Payment PaymentConfig
	Webhook WebhookConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GIFTCHECKOUT_APP_ENV" required:"true"`
	Port         string `envconfig:"GIFTCHECKOUT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GIFTCHECKOUT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GIFTCHECKOUT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RiseConfig carries the credentials and tenant attribution for the
// external gift-card service.
type RiseConfig struct {
	APIToken         string        `envconfig:"GIFTCHECKOUT_RISE_API_TOKEN" required:"true"`
	AccountID        string        `envconfig:"GIFTCHECKOUT_RISE_ACCOUNT_ID" required:"true"`
	APIVersion       string        `envconfig:"GIFTCHECKOUT_RISE_API_VERSION" default:"2020-07-16"`
	BaseURL          string        `envconfig:"GIFTCHECKOUT_RISE_BASE_URL" default:"https://platform.rise.ai/v1/rise/gift-cards"`
	Timeout          time.Duration `envconfig:"GIFTCHECKOUT_RISE_TIMEOUT" default:"10s"`
	SourceTenantID   string        `envconfig:"GIFTCHECKOUT_RISE_SOURCE_TENANT_ID"`
	SourceChannelID  string        `envconfig:"GIFTCHECKOUT_RISE_SOURCE_CHANNEL_ID"`
	SourceLocationID string        `envconfig:"GIFTCHECKOUT_RISE_SOURCE_LOCATION_ID"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GIFTCHECKOUT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GIFTCHECKOUT_REDIS_ADDR"`
	Password     string        `envconfig:"GIFTCHECKOUT_REDIS_PASSWORD"`
	DB           int           `envconfig:"GIFTCHECKOUT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GIFTCHECKOUT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GIFTCHECKOUT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GIFTCHECKOUT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GIFTCHECKOUT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GIFTCHECKOUT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartConfig controls the demo cart store.
type CartConfig struct {
	TTL time.Duration `envconfig:"GIFTCHECKOUT_CART_TTL" default:"24h"`
}

// PaymentConfig tunes the simulated secondary payment processor.
type PaymentConfig struct {
	DeclineRate float64       `envconfig:"GIFTCHECKOUT_PAYMENT_DECLINE_RATE" default:"0.05"`
	Latency     time.Duration `envconfig:"GIFTCHECKOUT_PAYMENT_LATENCY" default:"250ms"`
}

// WebhookConfig holds the Rise webhook verification material.
type WebhookConfig struct {
	RisePublicKeyPEM string        `envconfig:"GIFTCHECKOUT_RISE_WEBHOOK_PUBLIC_KEY"`
	DedupeTTL        time.Duration `envconfig:"GIFTCHECKOUT_WEBHOOK_DEDUPE_TTL" default:"24h"`
}
