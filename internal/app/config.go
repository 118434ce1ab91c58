package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (RSIM_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (RSIM_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	AdminToken  string `usage:"Bearer token for admin endpoints (RSIM_ADMIN_TOKEN)" flag:"admin-token"`

	// VendorTimeout bounds each call to the payment and provisioning vendors.
	VendorTimeout time.Duration `default:"10s" usage:"Timeout per external vendor call" flag:"vendor-timeout"`

	Database  DatabaseConfig
	Paystack  PaystackConfig
	ESIM      ESIMConfig
	SMTP      SMTPConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// DatabaseConfig bounds the PostgreSQL connection pool.
type DatabaseConfig struct {
	MaxConns       int32         `default:"10" usage:"Max pooled PostgreSQL connections" flag:"db-max-conns"`
	MinConns       int32         `default:"2"  usage:"Min pooled PostgreSQL connections" flag:"db-min-conns"`
	ConnectTimeout time.Duration `default:"5s" usage:"PostgreSQL connect timeout" flag:"db-connect-timeout"`
}

// PaystackConfig holds payment gateway credentials.
type PaystackConfig struct {
	SecretKey string `usage:"Paystack secret key (RSIM_PAYSTACK_SECRET_KEY)" flag:"paystack-secret-key"`
	BaseURL   string `default:"" usage:"Override the Paystack API base URL" flag:"paystack-base-url"`
}

// ESIMConfig holds provisioning vendor credentials.
type ESIMConfig struct {
	AccessCode string `usage:"eSIM vendor access code (RSIM_ESIM_ACCESS_CODE)" flag:"esim-access-code"`
	SecretKey  string `usage:"eSIM vendor API key (RSIM_ESIM_SECRET_KEY)" flag:"esim-secret-key"`
	BaseURL    string `default:"" usage:"Override the eSIM vendor base URL" flag:"esim-base-url"`
}

// SMTPConfig holds fulfillment email transport settings.
type SMTPConfig struct {
	Host     string `default:"smtp.gmail.com" usage:"SMTP server host"`
	Port     int    `default:"587" usage:"SMTP server port"`
	Username string `usage:"SMTP username (RSIM_SMTP_USERNAME)"`
	Password string `usage:"SMTP password (RSIM_SMTP_PASSWORD)"`
	From     string `default:"support@rromisim.com" usage:"Fulfillment sender address"`
	FromName string `default:"Rromisim eSIM" usage:"Fulfillment sender display name" flag:"from-name"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "RSIM",
		Files:     []string{"config.yaml", "/etc/rromisim/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set RSIM_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the RSIM_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
