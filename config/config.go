// Package config loads the server settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port string `envconfig:"PORT" default:"5000"`

	Mongo MongoConfig
	Redis RedisConfig
	Token TokenConfig
	Email EmailConfig

	StripeSecretKey string   `envconfig:"STRIPE_SECRET_KEY"`
	ReceiptSecret   string   `envconfig:"RECEIPT_SECRET"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	RateLimitRPS    float64  `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst  int      `envconfig:"RATE_LIMIT_BURST" default:"10"`

	Log LogConfig
}

type MongoConfig struct {
	URI            string        `envconfig:"MONGO_URI" required:"true"`
	Database       string        `envconfig:"MONGO_DB" default:"jerins-parlour"`
	ConnectTimeout time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`
}

// RedisConfig is optional. An empty Addr turns off the role cache and the
// booking event bus.
type RedisConfig struct {
	Addr         string        `envconfig:"REDIS_ADDR"`
	Password     string        `envconfig:"REDIS_PASSWORD"`
	DB           int           `envconfig:"REDIS_DB" default:"0"`
	RoleCacheTTL time.Duration `envconfig:"ROLE_CACHE_TTL" default:"5m"`
}

type TokenConfig struct {
	Secret string        `envconfig:"ACCESS_TOKEN_SECRET" required:"true"`
	TTL    time.Duration `envconfig:"TOKEN_TTL" default:"720h"`
}

type EmailConfig struct {
	Enabled      bool   `envconfig:"EMAIL_ENABLED" default:"false"`
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	From         string `envconfig:"EMAIL_SENDER"`
	SalonAddress string `envconfig:"SALON_ADDRESS" default:"barishal, bangladesh"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Token.Secret) == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET must not be blank")
	}
	if c.Token.TTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Token.TTL)
	}
	if c.Email.Enabled && (c.Email.SMTPHost == "" || c.Email.From == "") {
		return fmt.Errorf("EMAIL_ENABLED requires SMTP_HOST and EMAIL_SENDER")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

// ReceiptKey signs receipt QR payloads. It falls back to the token secret.
func (c *Config) ReceiptKey() string {
	if c.ReceiptSecret != "" {
		return c.ReceiptSecret
	}
	return c.Token.Secret
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
