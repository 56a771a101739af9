package config

// EnvPrefix is handed to envconfig; every field carries an explicit
// envconfig tag so the prefix only matters for error messages.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:storefront.db?cache=shared"
)

const (
	EnvAppEnv            = "STOREFRONT_APP_ENV"
	EnvPort              = "STOREFRONT_APP_PORT"
	EnvDBDSN             = "STOREFRONT_DB_DSN"
	EnvDBHost            = "STOREFRONT_DB_HOST"
	EnvDBUser            = "STOREFRONT_DB_USER"
	EnvDBName            = "STOREFRONT_DB_NAME"
	EnvRedisURL          = "STOREFRONT_REDIS_URL"
	EnvAuthSecret        = "STOREFRONT_AUTH_JWT_SECRET"
	EnvAuthIssuer        = "STOREFRONT_AUTH_JWT_ISSUER"
	EnvTelegramBotToken  = "STOREFRONT_TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID    = "STOREFRONT_TELEGRAM_CHAT_ID"
	EnvBackendBaseURL    = "STOREFRONT_BACKEND_BASE_URL"
	EnvUseSQLite         = "STOREFRONT_USE_SQLITE"
	EnvCartIdleTTL       = "STOREFRONT_CART_IDLE_TTL"
	EnvCheckoutRateLimit = "STOREFRONT_CHECKOUT_RATE_LIMIT_IP_LIMIT"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
