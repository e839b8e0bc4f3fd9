package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds all application configuration
type Config struct {
	Env     string `envconfig:"APP_ENV" default:"development"`
	Port    int    `envconfig:"APP_PORT" default:"5000"`
	Store   StoreConfig
	DB      DBConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Limiter RateLimiterConfig
	CORS    CORSConfig
	JWT     JWTConfig
	OTP     OTPConfig
	SMTP    SMTPConfig
	Groq    GroqConfig
}

// which backend keeps users and interviews
type StoreConfig struct {
	Driver string `envconfig:"STORE_DRIVER" default:"postgres"`
}

// database configuration
type DBConfig struct {
	DSN             string        `envconfig:"DATABASE_URL"`
	MaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"20"`
	MinConns        int32         `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `envconfig:"DB_MAX_IDLE_TIME" default:"15m"`
	AutoMigrate     bool          `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// MongoDB configuration
type MongoConfig struct {
	URI      string        `envconfig:"MONGO_URI"`
	Database string        `envconfig:"MONGO_DATABASE" default:"ai_interview_coach"`
	Timeout  time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`
}

// Redis configuration; an empty address keeps revoked tokens and throttles in memory
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// rate limiting configuration
type RateLimiterConfig struct {
	RPS     float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst   int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
	Enabled bool    `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORS configuration
type CORSConfig struct {
	TrustedOrigins []string `envconfig:"CORS_TRUSTED_ORIGINS" default:"http://localhost:3000,http://localhost:4173,http://localhost:5173"`
}

// JWT configuration
type JWTConfig struct {
	Secret     string        `envconfig:"JWT_SECRET" required:"true"`
	TTL        time.Duration `envconfig:"JWT_TTL" default:"168h"` // 7 days
	CookieName string        `envconfig:"JWT_COOKIE_NAME" default:"jwt"`
}

// one-time password configuration
type OTPConfig struct {
	TTL            time.Duration `envconfig:"OTP_TTL" default:"1h"`
	ResendCooldown time.Duration `envconfig:"OTP_RESEND_COOLDOWN" default:"60s"`
	ResetWindow    time.Duration `envconfig:"OTP_RESET_WINDOW" default:"15m"`
}

// SMTP configuration; an empty host logs emails instead of sending them
type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SENDER_EMAIL" default:"no-reply@ai-interview-coach.local"`
}

// Groq AI configuration; without a key the built-in question bank is used
type GroqConfig struct {
	APIKey  string        `envconfig:"GROQ_API_KEY"`
	BaseURL string        `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1"`
	Model   string        `envconfig:"GROQ_MODEL" default:"meta-llama/llama-4-maverick-17b-128e-instruct"`
	Timeout time.Duration `envconfig:"GROQ_TIMEOUT" default:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Env)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", c.Port)
	}
	switch c.Store.Driver {
	case DriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", DriverPostgres)
		}
		if c.DB.MaxConns < 1 {
			return fmt.Errorf("DB_MAX_CONNS must be at least 1")
		}
		if c.DB.MinConns < 0 || c.DB.MinConns > c.DB.MaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) must be between 0 and DB_MAX_CONNS (%d)",
				c.DB.MinConns, c.DB.MaxConns)
		}
	case DriverMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=%s", DriverMongo)
		}
		if c.Mongo.Database == "" {
			return fmt.Errorf("MONGO_DATABASE must not be empty")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER: %q (must be %s or %s)", c.Store.Driver, DriverPostgres, DriverMongo)
	}
	if c.Limiter.RPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be non-negative")
	}
	if c.Limiter.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.JWT.CookieName == "" {
		return fmt.Errorf("JWT_COOKIE_NAME must not be empty")
	}
	if c.OTP.TTL <= 0 || c.OTP.ResetWindow <= 0 {
		return fmt.Errorf("OTP_TTL and OTP_RESET_WINDOW must be positive")
	}
	if c.OTP.ResendCooldown < 0 {
		return fmt.Errorf("OTP_RESEND_COOLDOWN must be non-negative")
	}
	if c.SMTP.Host != "" && (c.SMTP.Port < 1 || c.SMTP.Port > 65535) {
		return fmt.Errorf("invalid SMTP_PORT: %d", c.SMTP.Port)
	}
	if len(c.GetCORSOrigins()) == 0 {
		return fmt.Errorf("at least one trusted origin must be specified")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// GetCORSOrigins returns the list of trusted CORS origins
func (c *Config) GetCORSOrigins() []string {
	origins := make([]string, 0, len(c.CORS.TrustedOrigins))
	for _, origin := range c.CORS.TrustedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env=%s, Port=%d, Store=%s, DB.MaxConns=%d, Redis=%t, "+
		"Limiter.RPS=%.2f, Limiter.Burst=%d, Limiter.Enabled=%t, CORS.Origins=%d, "+
		"JWT.TTL=%s, OTP.TTL=%s, SMTP=%t, Groq=%t, Groq.Model=%s}",
		c.Env, c.Port, c.Store.Driver, c.DB.MaxConns, c.Redis.Addr != "",
		c.Limiter.RPS, c.Limiter.Burst, c.Limiter.Enabled, len(c.CORS.TrustedOrigins),
		c.JWT.TTL, c.OTP.TTL, c.SMTP.Host != "", c.Groq.APIKey != "", c.Groq.Model)
}
