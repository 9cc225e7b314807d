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
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Checkout      CheckoutConfig
	Sessions      SessionConfig
	Moyasar       MoyasarConfig
	Tamara        TamaraConfig
	Tabby         TabbyConfig
	AuthRateLimit AuthRateLimitConfig
	Outbox        OutboxConfig
	Cron          CronConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DUKKAN_APP_ENV" required:"true"`
	Port         string `envconfig:"DUKKAN_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"DUKKAN_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"DUKKAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DUKKAN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DUKKAN_DB_DSN"`
	Driver string `envconfig:"DUKKAN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DUKKAN_DB_HOST"`
	LegacyPort     int    `envconfig:"DUKKAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DUKKAN_DB_USER"`
	LegacyPassword string `envconfig:"DUKKAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"DUKKAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"DUKKAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DUKKAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DUKKAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DUKKAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DUKKAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DUKKAN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DUKKAN_REDIS_ADDR"`
	Password     string        `envconfig:"DUKKAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"DUKKAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DUKKAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DUKKAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DUKKAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DUKKAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DUKKAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DUKKAN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DUKKAN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DUKKAN_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DUKKAN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DUKKAN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DUKKAN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DUKKAN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DUKKAN_ARGON_KEY_LEN" default:"32"`
}

// CheckoutConfig carries the pricing knobs the settlement pipeline uses.
type CheckoutConfig struct {
	VATRatePercent  int `envconfig:"DUKKAN_CHECKOUT_VAT_RATE_PCT" default:"15"`
	ShippingFee     int `envconfig:"DUKKAN_CHECKOUT_SHIPPING_FEE_HALALAS" default:"2000"`
	LoyaltyDivisor  int `envconfig:"DUKKAN_CHECKOUT_LOYALTY_DIVISOR_HALALAS" default:"1000"`
	MinStockDefault int `envconfig:"DUKKAN_INVENTORY_MIN_STOCK_DEFAULT" default:"5"`
}

// SessionConfig bounds in-flight payment sessions.
type SessionConfig struct {
	PaymentTTL time.Duration `envconfig:"DUKKAN_PAYMENT_SESSION_TTL" default:"30m"`
}

type MoyasarConfig struct {
	APIURL        string        `envconfig:"DUKKAN_MOYASAR_API_URL" default:"https://api.moyasar.com"`
	APIKey        string        `envconfig:"DUKKAN_MOYASAR_API_KEY"`
	WebhookSecret string        `envconfig:"DUKKAN_MOYASAR_WEBHOOK_SECRET"`
	Timeout       time.Duration `envconfig:"DUKKAN_MOYASAR_TIMEOUT" default:"10s"`
}

type TamaraConfig struct {
	APIURL        string        `envconfig:"DUKKAN_TAMARA_API_URL" default:"https://api.tamara.co"`
	APIKey        string        `envconfig:"DUKKAN_TAMARA_API_KEY"`
	WebhookSecret string        `envconfig:"DUKKAN_TAMARA_WEBHOOK_SECRET"`
	Timeout       time.Duration `envconfig:"DUKKAN_TAMARA_TIMEOUT" default:"10s"`
}

type TabbyConfig struct {
	APIURL        string        `envconfig:"DUKKAN_TABBY_API_URL" default:"https://api.tabby.ai"`
	APIKey        string        `envconfig:"DUKKAN_TABBY_API_KEY"`
	MerchantCode  string        `envconfig:"DUKKAN_TABBY_MERCHANT_CODE"`
	WebhookSecret string        `envconfig:"DUKKAN_TABBY_WEBHOOK_SECRET"`
	Timeout       time.Duration `envconfig:"DUKKAN_TABBY_TIMEOUT" default:"10s"`
}

// AuthRateLimitConfig throttles credential-guessing traffic on the auth
// endpoints.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"DUKKAN_RL_LOGIN_WINDOW" default:"15m"`
	LoginIPLimit       int           `envconfig:"DUKKAN_RL_LOGIN_IP_LIMIT" default:"30"`
	LoginEmailLimit    int           `envconfig:"DUKKAN_RL_LOGIN_EMAIL_LIMIT" default:"10"`
	RegisterWindow     time.Duration `envconfig:"DUKKAN_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"DUKKAN_RL_REGISTER_IP_LIMIT" default:"20"`
	RegisterEmailLimit int           `envconfig:"DUKKAN_RL_REGISTER_EMAIL_LIMIT" default:"5"`
	StepUpWindow       time.Duration `envconfig:"DUKKAN_RL_STEPUP_WINDOW" default:"15m"`
	StepUpIPLimit      int           `envconfig:"DUKKAN_RL_STEPUP_IP_LIMIT" default:"20"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"DUKKAN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"DUKKAN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"DUKKAN_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"DUKKAN_CRON_INTERVAL" default:"5m"`
	LockTTL     time.Duration `envconfig:"DUKKAN_CRON_LOCK_TTL" default:"10m"`
	MetricsPort string        `envconfig:"DUKKAN_CRON_METRICS_PORT" default:"9091"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"DUKKAN_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"DUKKAN_PUBSUB_DOMAIN_TOPIC" default:"dukkan-domain-events"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DUKKAN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DUKKAN_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"DUKKAN_DB_HOST": db.LegacyHost,
		"DUKKAN_DB_USER": db.LegacyUser,
		"DUKKAN_DB_NAME": db.LegacyName,
	}
	for _, env := range []string{"DUKKAN_DB_HOST", "DUKKAN_DB_USER", "DUKKAN_DB_NAME"} {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either DUKKAN_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
