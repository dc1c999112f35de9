package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Economy      EconomyConfig
	CORS         CORSConfig
	Idempotency  IdempotencyConfig
	RateLimit    RateLimitConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Economy.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ECOMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"ECOMARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ECOMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ECOMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ECOMARKET_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ECOMARKET_DB_DSN"`
	Driver string `envconfig:"ECOMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ECOMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"ECOMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ECOMARKET_DB_USER"`
	LegacyPassword string `envconfig:"ECOMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"ECOMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"ECOMARKET_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"ECOMARKET_SQLITE_PATH" default:"file:ecomarket.db?cache=shared"`

	MaxOpenConns    int           `envconfig:"ECOMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ECOMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ECOMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ECOMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// UsesSQLite reports whether the configured driver targets sqlite.
func (db DBConfig) UsesSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ECOMARKET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ECOMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"ECOMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"ECOMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ECOMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ECOMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ECOMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ECOMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ECOMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ECOMARKET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ECOMARKET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ECOMARKET_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ECOMARKET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ECOMARKET_AUTO_MIGRATE" default:"false"`
}

// EconomyConfig holds the EcoCoin exchange and read-model settings.
type EconomyConfig struct {
	CoinValueUSD             string  `envconfig:"ECOMARKET_ECOCOIN_VALUE_USD" default:"0.01"`
	DefaultMaxDiscountPct    float64 `envconfig:"ECOMARKET_DEFAULT_MAX_DISCOUNT_PERCENT" default:"0.5"`
	RecentLedgerLimit        int     `envconfig:"ECOMARKET_RECENT_LEDGER_LIMIT" default:"20"`
	ReconcileMismatchLogSize int     `envconfig:"ECOMARKET_RECONCILE_MISMATCH_LOG_SIZE" default:"50"`
}

func (e EconomyConfig) validate() error {
	if strings.TrimSpace(e.CoinValueUSD) == "" {
		return fmt.Errorf("%s is required", EnvCoinValueUSD)
	}
	if e.DefaultMaxDiscountPct < 0 || e.DefaultMaxDiscountPct > 1 {
		return fmt.Errorf("%s must be between 0 and 1", EnvDefaultMaxDiscountPct)
	}
	if e.RecentLedgerLimit <= 0 {
		return fmt.Errorf("%s must be positive", EnvRecentLedgerLimit)
	}
	return nil
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ECOMARKET_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MaxAgeSeconds  int      `envconfig:"ECOMARKET_CORS_MAX_AGE" default:"300"`
}

type IdempotencyConfig struct {
	DefaultTTL  time.Duration `envconfig:"ECOMARKET_IDEMPOTENCY_TTL" default:"24h"`
	CheckoutTTL time.Duration `envconfig:"ECOMARKET_IDEMPOTENCY_CHECKOUT_TTL" default:"168h"`
}

type RateLimitConfig struct {
	CheckoutWindow time.Duration `envconfig:"ECOMARKET_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutLimit  int           `envconfig:"ECOMARKET_RATE_LIMIT_CHECKOUT_LIMIT" default:"10"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"ECOMARKET_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"ECOMARKET_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"ECOMARKET_PUBSUB_ORDERS_TOPIC" default:"eco-orders"`
	WalletTopic string `envconfig:"ECOMARKET_PUBSUB_WALLET_TOPIC" default:"eco-wallet"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ECOMARKET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ECOMARKET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ECOMARKET_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"ECOMARKET_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	// Schedule is a standard five-field cron expression. Empty falls back to Interval.
	Schedule string        `envconfig:"ECOMARKET_CRON_SCHEDULE" default:"0 3 * * *"`
	Interval time.Duration `envconfig:"ECOMARKET_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"ECOMARKET_CRON_LOCK_TTL" default:"2h"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
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
