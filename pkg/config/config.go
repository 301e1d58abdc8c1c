package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Admin         AdminConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Telegram      TelegramConfig
	Checkout      CheckoutConfig
	Cart          CartConfig
	Toast         ToastConfig
	Session       SessionConfig
	I18n          I18nConfig
	Storefront    StorefrontConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Admin.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

// Dialect reports the goose/gorm dialect name for the configured driver.
func (db DBConfig) Dialect() string {
	if strings.EqualFold(db.Driver, DriverSQLite) {
		return DriverSQLite
	}
	return DriverPostgres
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" default:"storefront"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"720"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

// AdminConfig holds the single shared admin credential. PasswordHash wins when both are set.
type AdminConfig struct {
	Password     string `envconfig:"STOREFRONT_ADMIN_PASSWORD" default:"admin123"`
	PasswordHash string `envconfig:"STOREFRONT_ADMIN_PASSWORD_HASH"`
}

func (a AdminConfig) validate() error {
	if strings.TrimSpace(a.Password) == "" && strings.TrimSpace(a.PasswordHash) == "" {
		return fmt.Errorf("either %s or %s is required", EnvAdminPassword, EnvAdminPasswordHash)
	}
	return nil
}

type AuthRateLimitConfig struct {
	LoginWindow  time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
	Tracing     bool `envconfig:"STOREFRONT_TRACING" default:"true"`
}

// TelegramConfig configures the order notification bot and the mini-app probe.
type TelegramConfig struct {
	BotToken       string        `envconfig:"STOREFRONT_TELEGRAM_BOT_TOKEN"`
	AdminChatID    string        `envconfig:"STOREFRONT_TELEGRAM_ADMIN_CHAT_ID"`
	APIBaseURL     string        `envconfig:"STOREFRONT_TELEGRAM_API_BASE_URL" default:"https://api.telegram.org"`
	Timeout        time.Duration `envconfig:"STOREFRONT_TELEGRAM_TIMEOUT" default:"10s"`
	InitDataMaxAge time.Duration `envconfig:"STOREFRONT_TELEGRAM_INIT_DATA_MAX_AGE" default:"24h"`
}

// NotificationsEnabled reports whether both bot credentials are present.
func (t TelegramConfig) NotificationsEnabled() bool {
	return strings.TrimSpace(t.BotToken) != "" && strings.TrimSpace(t.AdminChatID) != ""
}

type CheckoutConfig struct {
	ClearDelay          time.Duration `envconfig:"STOREFRONT_CHECKOUT_CLEAR_DELAY" default:"2000ms"`
	NotificationTimeout time.Duration `envconfig:"STOREFRONT_CHECKOUT_NOTIFICATION_TIMEOUT" default:"5s"`
}

type CartConfig struct {
	SnapshotTTL time.Duration `envconfig:"STOREFRONT_CART_SNAPSHOT_TTL" default:"720h"`
}

type ToastConfig struct {
	DefaultDuration time.Duration `envconfig:"STOREFRONT_TOAST_DEFAULT_DURATION" default:"3000ms"`
	MaxEntries      int           `envconfig:"STOREFRONT_TOAST_MAX_ENTRIES" default:"5"`
}

// SessionConfig bounds the per-session state kept in process memory.
type SessionConfig struct {
	IdleTimeout time.Duration `envconfig:"STOREFRONT_SESSION_IDLE_TIMEOUT" default:"30m"`
}

type I18nConfig struct {
	DefaultLocale string        `envconfig:"STOREFRONT_DEFAULT_LOCALE" default:"uz-lat"`
	PreferenceTTL time.Duration `envconfig:"STOREFRONT_LOCALE_PREFERENCE_TTL" default:"8760h"`
}

// StorefrontConfig carries the contact links rendered by the embedded mini-app footer.
type StorefrontConfig struct {
	InstagramURL string `envconfig:"STOREFRONT_CONTACT_INSTAGRAM_URL"`
	TelegramURL  string `envconfig:"STOREFRONT_CONTACT_TELEGRAM_URL"`
	Phone        string `envconfig:"STOREFRONT_CONTACT_PHONE"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
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
