package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/razeathletics/storefront/pkg/config"
	"github.com/razeathletics/storefront/pkg/database"
	"github.com/razeathletics/storefront/pkg/tracing"
)

// ErrSessionNotConfigured is returned when a deployed environment has no
// payment provider key.
var ErrSessionNotConfigured = errors.New("STRIPE_API_KEY is required outside development")

const (
	envDevelopment = "development"
	envTest        = "test"

	minJWTSecretLength = 32
	devJWTSecret       = "dev-secret-change-me-dev-secret-change"
)

// Config holds all configuration for the storefront server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`
	Version     string `env:"SERVICE_VERSION" envDefault:"dev"`

	// HTTP server
	HTTPPort            int           `env:"HTTP_PORT" envDefault:"8001"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"20s"`

	CORSOrigins  []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	FrontendURL  string   `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	CookieSecure bool     `env:"COOKIE_SECURE" envDefault:"true"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"raze"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"raze_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`
	RunMigrations         bool  `env:"RUN_MIGRATIONS" envDefault:"true"`

	// DBSlowQueryThreshold logs traced queries slower than this. Zero disables it.
	DBSlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"250ms"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka. An empty broker list disables publishing and consumers.
	KafkaBrokers   []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaGroupID   string   `env:"KAFKA_GROUP_ID" envDefault:"storefront-notifier"`
	KafkaEnableDLQ bool     `env:"KAFKA_ENABLE_DLQ" envDefault:"true"`

	// Auth
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me-dev-secret-change"`
	JWTAccessTTL   time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	UserSessionTTL time.Duration `env:"USER_SESSION_TTL" envDefault:"168h"`
	AuthSessionURL string        `env:"AUTH_SESSION_URL" envDefault:"https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"`

	// Admin console
	AdminPassword   string        `env:"ADMIN_PASSWORD" envDefault:""`
	AdminSessionTTL time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"24h"`

	// Payments
	StripeAPIKey        string        `env:"STRIPE_API_KEY" envDefault:""`
	StripeWebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET" envDefault:""`
	StripeBaseURL       string        `env:"STRIPE_BASE_URL" envDefault:"https://api.stripe.com"`
	CheckoutTTL         time.Duration `env:"CHECKOUT_TTL" envDefault:"30m"`
	ReaperInterval      time.Duration `env:"REAPER_INTERVAL" envDefault:"1m"`
	ReaperGrace         time.Duration `env:"REAPER_GRACE" envDefault:"2m"`

	// Shipping
	ShippoAPIKey  string `env:"SHIPPO_API_KEY" envDefault:""`
	ShippoBaseURL string `env:"SHIPPO_BASE_URL" envDefault:"https://api.goshippo.com"`

	// Email and workflow webhooks
	ResendAPIKey          string        `env:"RESEND_API_KEY" envDefault:""`
	ResendBaseURL         string        `env:"RESEND_BASE_URL" envDefault:"https://api.resend.com"`
	SenderEmail           string        `env:"SENDER_EMAIL" envDefault:"onboarding@resend.dev"`
	N8NSignupWebhookURL   string        `env:"N8N_WEBHOOK_URL" envDefault:""`
	N8NGiveawayWebhookURL string        `env:"N8N_GIVEAWAY_WEBHOOK_URL" envDefault:""`
	N8NLowStockWebhookURL string        `env:"N8N_LOW_STOCK_WEBHOOK_URL" envDefault:""`
	BulkEmailBatchSize    int           `env:"BULK_EMAIL_BATCH_SIZE" envDefault:"50"`
	BulkEmailBatchPause   time.Duration `env:"BULK_EMAIL_BATCH_PAUSE" envDefault:"1s"`

	// Notification dispatcher
	DispatcherWorkers     int           `env:"DISPATCHER_WORKERS" envDefault:"4"`
	DispatcherQueueSize   int           `env:"DISPATCHER_QUEUE_SIZE" envDefault:"256"`
	DispatcherMaxAttempts int           `env:"DISPATCHER_MAX_ATTEMPTS" envDefault:"3"`
	DispatcherTaskTimeout time.Duration `env:"DISPATCHER_TASK_TIMEOUT" envDefault:"10s"`

	// Rate limiting
	RateLimitRPS        float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst      int           `env:"RATE_LIMIT_BURST" envDefault:"40"`
	SensitiveRateLimit  int           `env:"SENSITIVE_RATE_LIMIT" envDefault:"10"`
	SensitiveRateWindow time.Duration `env:"SENSITIVE_RATE_WINDOW" envDefault:"1m"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from the environment, after the named dotenv
// files. With no names it reads .env in the working directory.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, dotenvFiles...); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether local shortcuts such as mock providers are
// allowed.
func (c *Config) IsDevelopment() bool {
	return c.Environment == envDevelopment || c.Environment == envTest
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("invalid POSTGRES_PORT: %d", c.PostgresPort)
	}
	if c.RedisPort < 1 || c.RedisPort > 65535 {
		return fmt.Errorf("invalid REDIS_PORT: %d", c.RedisPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.CheckoutTTL <= 0 {
		return fmt.Errorf("CHECKOUT_TTL must be > 0, got %s", c.CheckoutTTL)
	}
	if c.ReaperInterval <= 0 {
		return fmt.Errorf("REAPER_INTERVAL must be > 0, got %s", c.ReaperInterval)
	}
	if c.DispatcherWorkers < 1 || c.DispatcherQueueSize < 1 || c.DispatcherMaxAttempts < 1 {
		return fmt.Errorf("dispatcher workers, queue size and attempts must be >= 1")
	}
	if c.BulkEmailBatchSize < 1 {
		return fmt.Errorf("BULK_EMAIL_BATCH_SIZE must be >= 1, got %d", c.BulkEmailBatchSize)
	}
	if c.IsDevelopment() {
		return nil
	}

	if len(c.JWTSecret) < minJWTSecretLength || c.JWTSecret == devJWTSecret {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required outside development")
	}
	if c.StripeAPIKey == "" {
		return ErrSessionNotConfigured
	}
	return nil
}

// Postgres returns the pool settings.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the Redis client settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		PoolSize: 10,
	}
}

// Tracing returns the OpenTelemetry settings for serviceName.
func (c *Config) Tracing(serviceName string) tracing.Config {
	return tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTELEndpoint,
		SampleRate:     c.OTELSampleRate,
		Enabled:        c.OTELEnabled,
	}
}
