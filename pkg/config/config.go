package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Upstream     UpstreamConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	Cart         CartConfig
	Catalog      CatalogConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LUMIERE_APP_ENV" required:"true"`
	Port         string `envconfig:"LUMIERE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LUMIERE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LUMIERE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// UpstreamConfig points the gateway at the commerce API that owns catalog,
// orders, auth and payments.
type UpstreamConfig struct {
	BaseURL       string        `envconfig:"LUMIERE_UPSTREAM_BASE_URL" required:"true"`
	Timeout       time.Duration `envconfig:"LUMIERE_UPSTREAM_TIMEOUT" default:"10s"`
	RetryAttempts uint64        `envconfig:"LUMIERE_UPSTREAM_RETRY_ATTEMPTS" default:"3"`
	RetryBase     time.Duration `envconfig:"LUMIERE_UPSTREAM_RETRY_BASE" default:"250ms"`
}

func (u UpstreamConfig) validate() error {
	parsed, err := url.Parse(u.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid upstream base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("upstream base url must be http(s), got %q", u.BaseURL)
	}
	return nil
}

// DBConfig configures the local durable store that holds persisted carts.
// Sqlite is the default so a single gateway instance needs no extra services.
type DBConfig struct {
	Driver string `envconfig:"LUMIERE_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"LUMIERE_DB_DSN" default:"file:lumiere.db?_pragma=busy_timeout(5000)"`

	MaxOpenConns    int           `envconfig:"LUMIERE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"LUMIERE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"LUMIERE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LUMIERE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LUMIERE_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"LUMIERE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LUMIERE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LUMIERE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LUMIERE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LUMIERE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SessionConfig struct {
	TTL        time.Duration `envconfig:"LUMIERE_SESSION_TTL" default:"720h"`
	CookieName string        `envconfig:"LUMIERE_SESSION_COOKIE" default:"lumiere_session"`
}

type CartConfig struct {
	// FlushTimeout bounds a single background save of the persisted cart.
	FlushTimeout time.Duration `envconfig:"LUMIERE_CART_FLUSH_TIMEOUT" default:"5s"`
}

type CatalogConfig struct {
	CacheTTL time.Duration `envconfig:"LUMIERE_CATALOG_CACHE_TTL" default:"60s"`
}

type CheckoutConfig struct {
	// Revalidate re-reads price and stock from the catalog at submission time
	// instead of trusting the values captured when the item was added.
	Revalidate     bool          `envconfig:"LUMIERE_CHECKOUT_REVALIDATE" default:"false"`
	IdempotencyTTL time.Duration `envconfig:"LUMIERE_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LUMIERE_AUTO_MIGRATE" default:"true"`
}
