package config

const (
	EnvPrefix = "ECOMARKET"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv   = "ECOMARKET_APP_ENV"
	EnvPort     = "ECOMARKET_APP_PORT"
	EnvLogLevel = "ECOMARKET_LOG_LEVEL"

	EnvDBDSN     = "ECOMARKET_DB_DSN"
	EnvDBHost    = "ECOMARKET_DB_HOST"
	EnvDBUser    = "ECOMARKET_DB_USER"
	EnvDBName    = "ECOMARKET_DB_NAME"
	EnvUseSQLite = "ECOMARKET_USE_SQLITE"

	EnvRedisURL = "ECOMARKET_REDIS_URL"

	EnvJWTSecret  = "ECOMARKET_JWT_SECRET"
	EnvJWTIssuer  = "ECOMARKET_JWT_ISSUER"
	EnvJWTExpMins = "ECOMARKET_JWT_EXPIRATION_MINUTES"

	EnvCoinValueUSD          = "ECOMARKET_ECOCOIN_VALUE_USD"
	EnvDefaultMaxDiscountPct = "ECOMARKET_DEFAULT_MAX_DISCOUNT_PERCENT"
	EnvRecentLedgerLimit     = "ECOMARKET_RECENT_LEDGER_LIMIT"

	EnvCORSAllowedOrigins = "ECOMARKET_CORS_ALLOWED_ORIGINS"
	EnvGCPProjectID       = "ECOMARKET_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "ECOMARKET_PUBSUB_ORDERS_TOPIC"
	EnvCronSchedule       = "ECOMARKET_CRON_SCHEDULE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
