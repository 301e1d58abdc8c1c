package config

// EnvPrefix is handed to envconfig; every field carries its full name in the tag.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	defaultSQLiteDSN = "file:storefront.db?_foreign_keys=on"
)

const (
	EnvAppEnv            = "STOREFRONT_APP_ENV"
	EnvPort              = "STOREFRONT_APP_PORT"
	EnvLogLevel          = "STOREFRONT_LOG_LEVEL"
	EnvDBDSN             = "STOREFRONT_DB_DSN"
	EnvDBHost            = "STOREFRONT_DB_HOST"
	EnvDBUser            = "STOREFRONT_DB_USER"
	EnvDBName            = "STOREFRONT_DB_NAME"
	EnvRedisURL          = "STOREFRONT_REDIS_URL"
	EnvRedisAddr         = "STOREFRONT_REDIS_ADDR"
	EnvJWTSecret         = "STOREFRONT_JWT_SECRET"
	EnvAdminPassword     = "STOREFRONT_ADMIN_PASSWORD"
	EnvAdminPasswordHash = "STOREFRONT_ADMIN_PASSWORD_HASH"
	EnvUseSQLite         = "STOREFRONT_USE_SQLITE"
	EnvTelegramBotToken  = "STOREFRONT_TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID    = "STOREFRONT_TELEGRAM_ADMIN_CHAT_ID"
	EnvCheckoutDelay     = "STOREFRONT_CHECKOUT_CLEAR_DELAY"
	EnvCORSOrigins       = "STOREFRONT_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
