package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	SiteURL        string        `yaml:"site_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// RestoreTimeout bounds the generative-model call; it talks to an image
	// model and routinely takes tens of seconds.
	RestoreTimeout time.Duration `yaml:"restore_timeout"`
	Workers        int           `yaml:"workers"`
	// TrustProxy enables X-Forwarded-For as the client address. Only set it
	// when a proxy in front strips the inbound header.
	TrustProxy bool `yaml:"trust_proxy"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type RestorationConfig struct {
	GeminiKey   string `yaml:"gemini_key"`
	GeminiURL   string `yaml:"gemini_url"`
	GeminiModel string `yaml:"gemini_model"`
	OpenAIKey   string `yaml:"openai_key"`
	OpenAIModel string `yaml:"openai_model"`
}

type PaymentConfig struct {
	MercadoPago struct {
		AccessToken string `yaml:"access_token"`
		BaseURL     string `yaml:"base_url"`
		WebhookPath string `yaml:"webhook_path"`
	} `yaml:"mercadopago"`
}

type EmailConfig struct {
	ResendKey   string `yaml:"resend_key"`
	From        string `yaml:"from"`
	MaxAttempts int    `yaml:"max_attempts"`
}

type AdminConfig struct {
	APIKey     string        `yaml:"api_key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type RateLimitConfig struct {
	RedeemPerMinute   int `yaml:"redeem_per_minute"`
	ValidatePerMinute int `yaml:"validate_per_minute"`
	RestorePerMinute  int `yaml:"restore_per_minute"`
}

type SweeperConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Restoration RestorationConfig `yaml:"restoration"`
	Payment     PaymentConfig     `yaml:"payment"`
	Email       EmailConfig       `yaml:"email"`
	Admin       AdminConfig       `yaml:"admin"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Sweeper     SweeperConfig     `yaml:"sweeper"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 15 * time.Second
	}
	if cfg.Server.RestoreTimeout <= 0 {
		cfg.Server.RestoreTimeout = 90 * time.Second
	}
	if cfg.Server.Workers <= 0 {
		cfg.Server.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Restoration.GeminiModel == "" {
		cfg.Restoration.GeminiModel = "gemini-3-pro-image-preview"
	}
	if cfg.Restoration.OpenAIModel == "" {
		cfg.Restoration.OpenAIModel = "gpt-image-1"
	}
	if cfg.Payment.MercadoPago.WebhookPath == "" {
		cfg.Payment.MercadoPago.WebhookPath = "/api/payment/webhook"
	}
	if cfg.Email.From == "" {
		cfg.Email.From = "FotoMagic Pro <noreply@fotomagicpro.com>"
	}
	if cfg.Email.MaxAttempts <= 0 {
		cfg.Email.MaxAttempts = 5
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.RateLimit.RedeemPerMinute <= 0 {
		cfg.RateLimit.RedeemPerMinute = 30
	}
	if cfg.RateLimit.ValidatePerMinute <= 0 {
		cfg.RateLimit.ValidatePerMinute = 60
	}
	if cfg.RateLimit.RestorePerMinute <= 0 {
		cfg.RateLimit.RestorePerMinute = 10
	}
	if cfg.Sweeper.Interval <= 0 {
		cfg.Sweeper.Interval = time.Minute
	}
	if cfg.Sweeper.StaleAfter <= 0 {
		cfg.Sweeper.StaleAfter = 10 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Payment.MercadoPago.AccessToken == "" && !dev {
		return nil, errors.New("payment.mercadopago.access_token is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
