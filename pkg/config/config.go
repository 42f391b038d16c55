package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "GREENBASKET"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "GREENBASKET_DB_DSN"
	EnvDBHost = "GREENBASKET_DB_HOST"
	EnvDBUser = "GREENBASKET_DB_USER"
	EnvDBName = "GREENBASKET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Checkout     CheckoutConfig
	OTP          OTPConfig
	Square       SquareConfig
	SSLCommerz   SSLCommerzConfig
	Sendgrid     SendgridConfig
	Frontend     FrontendConfig
	RateLimit    RateLimitConfig
	Scheduler    SchedulerConfig
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
	Env          string `envconfig:"GREENBASKET_APP_ENV" required:"true"`
	Port         string `envconfig:"GREENBASKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GREENBASKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GREENBASKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GREENBASKET_DB_DSN"`
	Driver string `envconfig:"GREENBASKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GREENBASKET_DB_HOST"`
	LegacyPort     int    `envconfig:"GREENBASKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GREENBASKET_DB_USER"`
	LegacyPassword string `envconfig:"GREENBASKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"GREENBASKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"GREENBASKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GREENBASKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GREENBASKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GREENBASKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GREENBASKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GREENBASKET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GREENBASKET_REDIS_ADDR"`
	Password     string        `envconfig:"GREENBASKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"GREENBASKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GREENBASKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GREENBASKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GREENBASKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GREENBASKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GREENBASKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GREENBASKET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GREENBASKET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GREENBASKET_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GREENBASKET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GREENBASKET_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GREENBASKET_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"GREENBASKET_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GREENBASKET_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"GREENBASKET_PUBSUB_ORDERS_TOPIC" default:"gb-order-events"`
	OrdersSubscription string `envconfig:"GREENBASKET_PUBSUB_ORDERS_SUBSCRIPTION" default:"gb-order-events-notifications"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GREENBASKET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GREENBASKET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GREENBASKET_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"GREENBASKET_OUTBOX_RETENTION_DAYS" default:"14"`

	// IdempotencyTTL bounds how long a consumer remembers processed event IDs.
	IdempotencyTTL time.Duration `envconfig:"GREENBASKET_OUTBOX_IDEMPOTENCY_TTL" default:"48h"`
}

type CheckoutConfig struct {
	// PendingTTL bounds how long an unpaid pending order keeps its stock hold
	// before the scheduler cancels it and releases the reservation.
	PendingTTL time.Duration `envconfig:"GREENBASKET_CHECKOUT_PENDING_TTL" default:"48h"`
}

type OTPConfig struct {
	MaxAttempts   int           `envconfig:"GREENBASKET_OTP_MAX_ATTEMPTS" default:"5"`
	AttemptWindow time.Duration `envconfig:"GREENBASKET_OTP_ATTEMPT_WINDOW" default:"15m"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"GREENBASKET_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"GREENBASKET_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"GREENBASKET_SQUARE_LOCATION_ID"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type SSLCommerzConfig struct {
	StoreID       string        `envconfig:"GREENBASKET_SSLCOMMERZ_STORE_ID"`
	StorePassword string        `envconfig:"GREENBASKET_SSLCOMMERZ_STORE_PASSWORD"`
	Sandbox       bool          `envconfig:"GREENBASKET_SSLCOMMERZ_SANDBOX" default:"true"`
	Timeout       time.Duration `envconfig:"GREENBASKET_SSLCOMMERZ_TIMEOUT" default:"10s"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"GREENBASKET_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"GREENBASKET_SENDGRID_FROM_EMAIL"`
}

type FrontendConfig struct {
	BaseURL           string `envconfig:"GREENBASKET_FRONTEND_BASE_URL" default:"http://localhost:3000"`
	PaymentSuccessURL string `envconfig:"GREENBASKET_FRONTEND_PAYMENT_SUCCESS_PATH" default:"/payment/success"`
	PaymentFailureURL string `envconfig:"GREENBASKET_FRONTEND_PAYMENT_FAILURE_PATH" default:"/payment/failure"`
}

// RateLimitConfig throttles the surfaces a gateway or courier device hits
// repeatedly: the payment verify callback and delivery confirmation.
type RateLimitConfig struct {
	VerifyWindow    time.Duration `envconfig:"GREENBASKET_RATE_LIMIT_VERIFY_WINDOW" default:"1m"`
	VerifyIPLimit   int           `envconfig:"GREENBASKET_RATE_LIMIT_VERIFY_IP_LIMIT" default:"30"`
	DeliveryWindow  time.Duration `envconfig:"GREENBASKET_RATE_LIMIT_DELIVERY_WINDOW" default:"1m"`
	DeliveryIPLimit int           `envconfig:"GREENBASKET_RATE_LIMIT_DELIVERY_IP_LIMIT" default:"10"`
}

type SchedulerConfig struct {
	Interval time.Duration `envconfig:"GREENBASKET_SCHEDULER_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"GREENBASKET_SCHEDULER_LOCK_TTL" default:"14m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
